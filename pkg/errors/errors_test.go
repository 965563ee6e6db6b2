package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type testHandler struct {
	onError func(*DriftError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *DriftError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

func TestDriftErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *DriftError
		want string
	}{
		{
			name: "plain",
			err:  &DriftError{Op: "mapview.Initialize", Kind: KindSurface, Err: fmt.Errorf("boom")},
			want: "mapview.Initialize [surface]: boom",
		},
		{
			name: "channel",
			err:  &DriftError{Op: "platform.HandleEvent", Kind: KindParsing, Channel: "drift/platform_views", Err: fmt.Errorf("bad")},
			want: "platform.HandleEvent [parsing] channel=drift/platform_views: bad",
		},
		{
			name: "view",
			err:  &DriftError{Op: "platform.onStyleError", Kind: KindStyle, ViewID: 7, Err: fmt.Errorf("404")},
			want: "platform.onStyleError [style] view=7: 404",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDriftErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := &DriftError{Op: "op", Err: inner}
	if err.Unwrap() != inner {
		t.Error("Unwrap should return the wrapped error")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindPlatform, "platform"},
		{KindParsing, "parsing"},
		{KindInit, "init"},
		{KindSurface, "surface"},
		{KindStyle, "style"},
		{KindCamera, "camera"},
		{KindConfig, "config"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}

	err.Op = "mapview.Controller.notify"
	if got, want := err.Error(), "panic in mapview.Controller.notify: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestParseErrorString(t *testing.T) {
	err := &ParseError{Channel: "drift/platform_views", DataType: "StyleEvent", Got: 123}
	want := "failed to parse StyleEvent from channel drift/platform_views: got int"
	if got := err.Error(); got != want {
		t.Errorf("ParseError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *DriftError
	SetHandler(&testHandler{onError: func(err *DriftError) { captured = err }})
	defer SetHandler(nil)

	Report(&DriftError{Op: "test.op", Kind: KindInit, Err: fmt.Errorf("x")})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
	if !strings.Contains(captured.StackTrace, "TestReport") {
		t.Errorf("StackTrace should start at the reporter, got:\n%s", captured.StackTrace)
	}

	Report(&DriftError{Op: "test.op", Err: fmt.Errorf("x"), StackTrace: "kept"})
	if captured.StackTrace != "kept" {
		t.Errorf("StackTrace = %q, want the caller's value", captured.StackTrace)
	}
}

func TestReportNil(t *testing.T) {
	called := false
	SetHandler(&testHandler{
		onError: func(*DriftError) { called = true },
		onPanic: func(*PanicError) { called = true },
	})
	defer SetHandler(nil)

	Report(nil)
	ReportPanic(nil)
	if called {
		t.Error("nil reports should not reach the handler")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(nil)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
	if captured.StackTrace == "" {
		t.Error("expected a stack trace")
	}
}

func TestRecoverWithCallback(t *testing.T) {
	SetHandler(&testHandler{})
	defer SetHandler(nil)

	var got any
	func() {
		defer RecoverWithCallback("test.callback", func(r any) { got = r })
		panic(42)
	}()

	if got != 42 {
		t.Errorf("callback value = %v, want 42", got)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := Handler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", Handler())
	}
}

func TestLogHandlerWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTextLogger(&buf, slog.LevelDebug))
	defer SetLogger(nil)

	h := &LogHandler{Verbose: true}
	h.HandleError(&DriftError{
		Op:         "mapview.styleLoad",
		Kind:       KindStyle,
		ViewID:     3,
		Err:        fmt.Errorf("style not found"),
		StackTrace: "frame",
	})
	h.HandlePanic(&PanicError{Op: "observer", Value: "boom"})

	out := buf.String()
	for _, want := range []string{"op=mapview.styleLoad", "kind=style", "view=3", "stack=frame", "value=boom", "op=observer"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q should contain %q", out, want)
		}
	}
}
