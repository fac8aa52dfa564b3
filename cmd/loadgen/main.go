package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/dexboard/internal/loadgen"
	"github.com/okian/dexboard/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	runTimeout     = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadgen.Config{}

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Submit random scores to a dexboard service and verify the leaderboard",
		Example: `  loadgen
  loadgen --submissions 5000 --workers 32 --url http://localhost:8080
  loadgen --verbose`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := loadgen.Run(ctx, cfg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", loadgen.DefaultBaseURL, "Base URL of the service")
	flags.IntVar(&cfg.Submissions, "submissions", loadgen.DefaultSubmissions, "Number of scores to submit")
	flags.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")

	return cmd
}
