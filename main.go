package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/objectir/objectir/api"
	"github.com/objectir/objectir/config"
	"github.com/objectir/objectir/debugger"
	"github.com/objectir/objectir/loader"
	"github.com/objectir/objectir/value"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort     = flag.Int("port", 0, "API server port (used with -api-server; default from config)")
		method      = flag.String("method", "Main", "Method to invoke")
		argsFlag    = flag.String("args", "", "Comma-separated name=value arguments, e.g. n=5,label=hi")
		configPath  = flag.String("config", "", "Path to a config.toml file (default: platform config dir)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("ObjectIR %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if *apiServer {
		port := cfg.API.Port
		if *apiPort != 0 {
			port = *apiPort
		}
		runAPIServer(port, cfg)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: objectir [flags] <program.oir>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	path := flag.Arg(0)
	result, err := loader.LoadFile(path, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", path, err)
		os.Exit(1)
	}
	if result.Warnings.HasWarnings() {
		fmt.Fprint(os.Stderr, result.Warnings.String())
	}

	args, err := parseArgs(*argsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -args: %v\n", err)
		os.Exit(1)
	}

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(result.Executor, result.Program, cfg)
		if err := dbg.LoadMethod(*method, args); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load method %s: %v\n", *method, err)
			os.Exit(1)
		}

		var runErr error
		if *tuiMode {
			runErr = debugger.RunTUI(dbg)
		} else {
			runErr = debugger.RunCLI(dbg)
		}
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "debugger error: %v\n", runErr)
			os.Exit(1)
		}
		return
	}

	returnValue, err := result.Executor.Execute(*method, args)
	if out := result.Executor.Output(); out != "" {
		fmt.Println(out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(1)
	}
	if returnValue != nil {
		fmt.Printf("=> %s\n", returnValue.String())
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// parseArgs parses a "name=value,name2=value2" argument string into
// tagged values. A value is parsed as Bool if it is "true"/"false", as
// Int64 if it parses as an integer, as Double if it parses as a
// floating-point number, and as String otherwise.
func parseArgs(s string) (map[string]value.Value, error) {
	out := make(map[string]value.Value)
	if s == "" {
		return out, nil
	}

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed argument %q (expected name=value)", pair)
		}
		name, raw := parts[0], parts[1]

		switch {
		case raw == "true" || raw == "false":
			out[name] = value.BoolValue(raw == "true")
		default:
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				out[name] = value.Int64Value(n)
				continue
			}
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				out[name] = value.DoubleValue(f)
				continue
			}
			out[name] = value.StringValue(raw)
		}
	}
	return out, nil
}

func runAPIServer(port int, cfg *config.Config) {
	server := api.NewServer(port, cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
			}
		})
	}

	monitor := api.NewProcessMonitor(performShutdown)
	monitor.Start()
	defer monitor.Stop()

	go func() {
		<-sigChan
		performShutdown()
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`ObjectIR - a stack-based virtual machine for a CIL-inspired textual IR

Usage:
  objectir [flags] <program.oir>

Flags:
  -version           Show version information
  -help              Show this help
  -method string     Method to invoke (default "Main")
  -args string        Comma-separated name=value arguments, e.g. n=5,label=hi
  -debug             Start in CLI debugger mode
  -tui               Start in TUI debugger mode
  -api-server        Start the HTTP/WebSocket execution service
  -port int          API server port (default from config, normally 8089)
  -config string     Path to a config.toml file

Examples:
  objectir hello.oir
  objectir -method Sum -args n=10 sum.oir
  objectir -debug -method Main program.oir
  objectir -api-server -port 9000`)
}
