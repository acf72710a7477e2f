// agentd serves an LLM agent loop with tool dispatch over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/effective-security/agentd/internal/config"
	"github.com/effective-security/agentd/internal/server"
	"github.com/effective-security/xlog"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("agentd", flag.ContinueOnError)
	cfgFile := fs.String("cfg", "", "Path to the configuration file")
	listen := fs.String("listen", "", "Listen address override, e.g. :8000")
	debug := fs.Bool("debug", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, "agentd", version) //nolint:errcheck
		return 0
	}

	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr).Options(xlog.FormatWithCaller))
	if *debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.INFO)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR loading configuration: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Listen = *listen
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR starting server: %v\n", err)
		return 1
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR server failed: %v\n", err)
			return 1
		}
		return 0
	case <-sigCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR shutdown failed: %v\n", err)
		return 1
	}
	return 0
}
