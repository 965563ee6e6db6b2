// Package cmd implements the driftmaps CLI commands.
//
// The root command dispatches to subcommands (validate, presets, simulate)
// registered from each command's init function.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-drift/drift-maps/cmd/driftmaps/internal/config"
	"github.com/go-drift/drift-maps/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name  string
	Short string
	Long  string
	Usage string
	Run   func(args []string) error
}

var rootCmd = &Command{
	Name:  "driftmaps",
	Short: "driftmaps - map view lifecycle tooling",
	Long: `driftmaps checks a project's maps.yaml and drives the map view lifecycle
(surface creation, camera, style load, camera re-application) against a
headless renderer.

Use "driftmaps <command> --help" for more information about a command.`,
	Usage: "driftmaps <command> [flags]",
}

// Commands registered with the CLI, in registration order.
var (
	commands    = make(map[string]*Command)
	commandList []*Command
)

// stdout is where commands write their output.
var stdout io.Writer = os.Stdout

// projectDir overrides project root discovery when set with --dir.
var projectDir string

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	commandList = append(commandList, cmd)
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	if len(args) == 0 {
		printHelp()
		return nil
	}

	var filtered []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help" || arg == "help":
			if len(filtered) == 0 {
				printHelp()
				return nil
			}
			filtered = append(filtered, arg)
		case arg == "-v" || arg == "--version" || arg == "version":
			if len(filtered) == 0 {
				fmt.Fprintf(stdout, "driftmaps version %s (built %s)\n", Version, BuildTime)
				return nil
			}
			filtered = append(filtered, arg)
		case arg == "--debug":
			errors.SetLogger(errors.NewTextLogger(os.Stderr, slog.LevelDebug))
			errors.SetHandler(&errors.LogHandler{Verbose: true})
		case arg == "--dir":
			if i+1 >= len(args) {
				return fmt.Errorf("--dir requires a directory path")
			}
			projectDir = args[i+1]
			i++
		case strings.HasPrefix(arg, "--dir="):
			projectDir = strings.TrimPrefix(arg, "--dir=")
		default:
			filtered = append(filtered, arg)
		}
	}

	if len(filtered) == 0 {
		printHelp()
		return nil
	}

	name := filtered[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", name)
		printHelp()
		return fmt.Errorf("unknown command: %s", name)
	}

	cmdArgs := filtered[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

// loadProject resolves the configuration of the project in --dir, or of the
// Go module containing the working directory.
func loadProject() (*config.Resolved, error) {
	dir := projectDir
	if dir == "" {
		root, err := config.FindProjectRoot()
		if err != nil {
			return nil, err
		}
		dir = root
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		errors.Report(&errors.DriftError{
			Op:   "driftmaps.loadProject",
			Kind: errors.KindConfig,
			Err:  err,
		})
		return nil, err
	}
	return cfg, nil
}

func printHelp() {
	fmt.Fprintln(stdout, rootCmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", rootCmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, sub := range commandList {
		fmt.Fprintf(stdout, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Flags:")
	fmt.Fprintln(stdout, "  -h, --help           Show help for a command")
	fmt.Fprintln(stdout, "  -v, --version        Show version information")
	fmt.Fprintln(stdout, "  --dir DIR            Project directory (default: enclosing Go module)")
	fmt.Fprintln(stdout, "  --debug              Log lifecycle transitions and errors to stderr")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Environment:")
	fmt.Fprintf(stdout, "  %-20s Map access token when maps.yaml sets none\n", config.TokenEnv)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintln(stdout, "  driftmaps validate                 Check maps.yaml")
	fmt.Fprintln(stdout, "  driftmaps presets --geojson        Export preset centers as GeoJSON")
	fmt.Fprintln(stdout, "  driftmaps simulate --reinit night  Reinitialize while the style loads")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}
