// Command hostprobe records the host runtime's API version for the build.
//
// It runs the host with --print-config, reads API_VERSION, and writes the
// generated hostconfig source that hostconfig.Compiled reports:
//
//	go run ./cmd/hostprobe -out hostconfig/zz_generated_version.go
//
// -version skips probing. -schema prints the JSON schema of the runtime
// config file and -check validates one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reglet-dev/typeddata/hostconfig"
	"github.com/reglet-dev/typeddata/log"
)

// exitError carries the process exit code of a failed run.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("hostprobe", flag.ContinueOnError)
	flags.SetOutput(stderr)

	exe := flags.String("exe", "", "Host runtime executable (default $"+hostconfig.EnvRuntime+" or "+hostconfig.DefaultRuntime+").")
	version := flags.String("version", "", "Record this API version instead of probing.")
	out := flags.String("out", "-", "Output file for the generated source; '-' writes to stdout.")
	pkg := flags.String("pkg", "hostconfig", "Package name of the generated source.")
	schema := flags.Bool("schema", false, "Print the runtime config JSON schema and exit.")
	check := flags.String("check", "", "Validate a runtime config file and exit.")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn or error.")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &exitError{code: 2, msg: err.Error()}
	}
	logger := slog.New(log.NewHandler(log.WithWriter(stderr), log.WithLevel(log.ParseLevel(*logLevel))))

	switch {
	case *schema:
		data, err := hostconfig.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	case *check != "":
		cfg, err := hostconfig.LoadConfig(*check)
		if err != nil {
			return err
		}
		logger.Info("config is valid", "path", *check, "api_version", cfg.Version().String())
		return nil
	}

	v, err := resolveVersion(ctx, *version, *exe)
	if err != nil {
		return err
	}
	logger.Debug("host API version", "version", v.String(), "cfgs", strings.Join(hostconfig.Cfgs(v), ","))

	if *out == "-" {
		return hostconfig.WriteVersionFile(stdout, *pkg, v)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := hostconfig.WriteVersionFile(f, *pkg, v); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote version file", "path", *out, "version", v.String())
	return nil
}

func resolveVersion(ctx context.Context, explicit, exe string) (hostconfig.Version, error) {
	if explicit != "" {
		v, err := hostconfig.ParseVersion(explicit)
		if err != nil {
			return hostconfig.Version{}, &exitError{code: 2, msg: err.Error()}
		}
		return v, nil
	}
	var opts []hostconfig.ProbeOption
	if exe != "" {
		opts = append(opts, hostconfig.WithExecutable(exe))
	}
	vals, err := hostconfig.Probe(ctx, opts...)
	if err != nil {
		return hostconfig.Version{}, err
	}
	return vals.APIVersion()
}
