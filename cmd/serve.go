package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcp-gateway/internal/app"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// runServe loads configuration, probes every configured upstream, and
// serves the downstream transport until interrupted (spec.md §6).
func runServe(cmd *cobra.Command) error {
	var s *spinner.Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Writer = os.Stderr
		s.Suffix = " Probing configured upstream servers..."
		s.Start()
	}

	application, err := app.New(app.Config{})
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return application.Run(ctx)
}
