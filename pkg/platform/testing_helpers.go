package platform

// noopBridge is a NativeBridge that accepts all calls without side effects.
type noopBridge struct{}

func (noopBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	return DefaultCodec.Encode(nil)
}
func (noopBridge) StartEventStream(string) error { return nil }
func (noopBridge) StopEventStream(string) error  { return nil }

// SetupTestBridge installs a no-op native bridge and synchronous dispatch
// function for testing. The cleanup function should be testing.T.Cleanup or
// equivalent; it registers a teardown that calls ResetForTest.
//
//	platform.SetupTestBridge(t.Cleanup)
func SetupTestBridge(cleanup func(func())) {
	SetNativeBridge(noopBridge{})
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
}

// SendViewEvent delivers a native event for viewID on the platform views
// channel, as the bridge would. It is intended for tests of code built on
// native views.
func SendViewEvent(viewID int64, method string, args map[string]any) error {
	event := make(map[string]any, len(args)+2)
	for k, v := range args {
		event[k] = v
	}
	event["viewId"] = viewID
	event["method"] = method
	data, err := DefaultCodec.Encode(event)
	if err != nil {
		return err
	}
	return HandleEvent(platformViewsChannel, data)
}
