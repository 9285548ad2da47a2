package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-native/bridge"
	"github.com/wippyai/wasm-native/config"
	"github.com/wippyai/wasm-native/engine"
	"github.com/wippyai/wasm-native/library"
	"github.com/wippyai/wasm-native/linker"
	"github.com/wippyai/wasm-native/runtime"
)

type options struct {
	wasmFile    string
	configFile  string
	funcName    string
	args        string
	argv        string
	logFile     string
	metricsAddr string
	list        bool
	interactive bool
	verbose     bool
	wasi        bool
	schema      bool
}

func main() {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to core wasm module")
	flag.StringVar(&o.configFile, "config", "", "Import manifest (YAML)")
	flag.StringVar(&o.funcName, "func", "", "Function to call (optional)")
	flag.StringVar(&o.args, "args", "", "Arguments, shell quoted (\"1 2.5 0x10\")")
	flag.StringVar(&o.argv, "argv", "", "WASI arguments, shell quoted")
	flag.StringVar(&o.logFile, "log-file", "", "Also write logs to a rotating file")
	flag.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.BoolVar(&o.list, "list", false, "List imports and exported functions and exit")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&o.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&o.wasi, "wasi", false, "Provide wasi_snapshot_preview1")
	flag.BoolVar(&o.schema, "schema", false, "Print the manifest JSON schema and exit")
	flag.Parse()

	if o.schema {
		data, err := config.Schema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if o.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-config imports.yaml] [-func name] [-args \"1 2\"]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> [-config imports.yaml] -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> [-config imports.yaml] -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       run -schema")
		os.Exit(1)
	}

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	ctx := context.Background()

	logger, closeLog, err := newLogger(o.verbose, o.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	library.SetLogger(logger.Named("library"))
	linker.SetLogger(logger.Named("linker"))
	bridge.SetLogger(logger.Named("bridge"))
	engine.SetLogger(logger.Named("engine"))

	data, err := os.ReadFile(o.wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rtOpts := []runtime.Option{runtime.WithLogger(logger.Named("runtime"))}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		rtOpts = append(rtOpts, runtime.WithMetrics(reg))
		stop := serveMetrics(o.metricsAddr, reg, logger)
		defer stop()
	}

	rt, err := newRuntime(ctx, o, rtOpts)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadWASM(ctx, data)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	if o.list {
		printModule(o.wasmFile, mod)
		return nil
	}

	argv, err := shellwords.Parse(o.argv)
	if err != nil {
		return fmt.Errorf("parse -argv: %w", err)
	}
	inst, err := mod.InstantiateWithConfig(ctx, &engine.InstanceConfig{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Args:   append([]string{o.wasmFile}, argv...),
	})
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	if o.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("interactive mode needs a terminal")
		}
		return runInteractive(o.wasmFile, inst)
	}

	funcName := o.funcName
	if funcName == "" {
		funcName = entryPoint(inst.Exports())
		if funcName == "" {
			fmt.Printf("No function specified and no common entry point found.\n")
			fmt.Printf("Use -func to specify a function to call.\n")
			return nil
		}
	}

	args, err := shellwords.Parse(o.args)
	if err != nil {
		return fmt.Errorf("parse -args: %w", err)
	}

	logger.Debug("calling export", zap.String("func", funcName), zap.Strings("args", args))
	result, err := inst.CallStrings(ctx, funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	if result != nil {
		fmt.Printf("%v\n", result)
	}
	return nil
}

func newRuntime(ctx context.Context, o options, opts []runtime.Option) (*runtime.Runtime, error) {
	if o.configFile == "" {
		opts = append(opts, runtime.WithEngineConfig(engine.Config{EnableWASI: o.wasi}))
		rt, err := runtime.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create runtime: %w", err)
		}
		return rt, nil
	}

	m, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.wasi {
		m.Engine.WASI = true
	}
	rt, err := runtime.NewFromManifest(ctx, m, opts...)
	if err != nil {
		return nil, fmt.Errorf("bind manifest: %w", err)
	}
	return rt, nil
}

func printModule(filename string, mod *runtime.Module) {
	fmt.Printf("Module: %s\n", filename)

	fmt.Printf("\nImported functions:\n")
	for _, f := range mod.Imports() {
		fmt.Printf("  %s.%s\n", f.Module, f.String())
	}

	fmt.Printf("\nExported functions:\n")
	for _, f := range mod.Exports() {
		fmt.Printf("  %s\n", f.String())
	}

	if err := mod.Check(); err != nil {
		fmt.Printf("\nUnresolved: %v\n", err)
	}
}

// entryPoint picks a conventional entry point, or the only export.
func entryPoint(exports []runtime.Func) string {
	for _, name := range []string{"_start", "run", "main"} {
		for _, f := range exports {
			if f.Name == name {
				return name
			}
		}
	}
	if len(exports) == 1 {
		return exports[0].Name
	}
	return ""
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
