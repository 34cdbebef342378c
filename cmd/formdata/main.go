// Command formdata builds and inspects multipart/form-data request bodies.
//
// Usage:
//
//	formdata build -c formdata.yaml [-v]
//	formdata inspect --content-type "multipart/form-data; boundary=..." body.multipart
//
// build encodes every request in the configuration file and writes the
// bodies and their headers to the output directory. inspect decodes a
// body and lists its JSON payload and files.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sirosfoundation/go-apikit/internal/batch"
	"github.com/sirosfoundation/go-apikit/internal/config"
	"github.com/sirosfoundation/go-apikit/pkg/compression"
	"github.com/sirosfoundation/go-apikit/pkg/multipart"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "formdata: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return pflag.ErrHelp
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `formdata builds multipart/form-data request bodies.

Commands:
  build     encode the requests in a configuration file
  inspect   decode a body and list its parts

Run "formdata <command> --help" for command flags.
`)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runBuild(args []string, stdout, stderr io.Writer) error {
	var (
		configPath string
		outputDir  string
		gzip       bool
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&configPath, "config", "c", "formdata.yaml", "path to the configuration file")
	flagSet.StringVarP(&outputDir, "output", "o", "", "output directory (overrides output.dir)")
	flagSet.BoolVar(&gzip, "gzip", false, "gzip the encoded bodies (overrides output.gzip)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	logger := newLogger(stderr, verbose)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if flagSet.Changed("gzip") {
		cfg.Output.Gzip = gzip
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(cfg, logger)
	summary, runErr := runner.Run(ctx)

	for _, job := range runner.Tracker().Jobs() {
		switch job.State {
		case batch.StateWritten:
			fmt.Fprintf(stdout, "%-24s %-8s %8d bytes  %d file(s)  %s\n", job.Name, job.State, job.Size, job.Files, job.Boundary)
		default:
			fmt.Fprintf(stdout, "%-24s %-8s %s\n", job.Name, job.State, job.Error)
		}
	}
	fmt.Fprintf(stdout, "\n%d written, %d failed, %d bytes in %s\n",
		summary.Written, summary.Failed, summary.Bytes, summary.Duration.Round(time.Millisecond))

	return runErr
}

func runInspect(args []string, stdout, stderr io.Writer) error {
	var (
		contentType string
		gunzip      bool
	)

	flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&contentType, "content-type", "t", "", "Content-Type header of the body (required)")
	flagSet.BoolVarP(&gunzip, "gunzip", "z", false, "the body is gzip compressed")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if contentType == "" {
		return errors.New("--content-type is required")
	}
	if flagSet.NArg() != 1 {
		return errors.New("expected exactly one body file")
	}

	data, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		return err
	}
	if gunzip {
		data, err = compression.NewCompressor().Decompress(data)
		if err != nil {
			return err
		}
	}

	form, err := multipart.Parse(bytes.NewReader(data), contentType)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "boundary: %s\n", form.Boundary)
	fmt.Fprintf(stdout, "%s (%d bytes): %s\n", multipart.PayloadFieldName, len(form.Payload), form.Payload)
	for i, f := range form.Files {
		fmt.Fprintf(stdout, "%s: %q %s (%d bytes)\n", multipart.FileFieldName(i), f.Filename, f.MimeType, len(f.Data))
	}

	return nil
}
