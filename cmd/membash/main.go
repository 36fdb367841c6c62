// Package main provides the CLI entry point for membash, a memory read/write
// throughput microbenchmark.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/weiihann/membash/bench"
	"github.com/weiihann/membash/config"
	"github.com/weiihann/membash/report"
)

func main() {
	root := newRootCmd(os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membash",
		Short: "Simple memory tester program",
		Long: `Membash writes a checksummed pseudo-random pattern into a buffer, then
reads it back with a verifying scan, a whole-buffer copy and an optional
block copy, reporting the throughput of each pass.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			return run(cmd.OutOrStdout(), newLogger(logOut, cfg.Verbose), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func run(out io.Writer, logger *slog.Logger, cfg config.Config) error {
	logger.Info("starting benchmark",
		slog.Uint64("size", cfg.Size),
		slog.Uint64("iterations", cfg.Iterations),
		slog.Uint64("blockcpy", cfg.BlockSize),
		slog.Int64("seed", cfg.Seed),
		slog.String("mmap", cfg.MmapPath),
		slog.Bool("anonymous", cfg.Anonymous),
		slog.Bool("hash", cfg.Hash),
		slog.Bool("hash_scan", cfg.HashScan),
		slog.Bool("fence", cfg.Fence),
	)

	results, err := bench.NewRunner(cfg, logger).Run()
	if err != nil {
		return err
	}

	if cfg.JSON {
		if err := report.GenerateJSON(out, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(out, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.Debug("benchmark complete")

	return nil
}

// exitCode maps resource failures to the system error number behind them
// and every other failure to 1.
func exitCode(err error) int {
	var resErr *bench.ResourceError
	if errors.As(err, &resErr) {
		var errno syscall.Errno
		if errors.As(resErr, &errno) && errno != 0 && errno < 256 {
			return int(errno)
		}
	}

	return 1
}
