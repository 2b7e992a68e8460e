// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatbot-feedback/internal/application"
	"chatbot-feedback/internal/config"
	"chatbot-feedback/internal/infra/logging"
	"chatbot-feedback/internal/infra/repl"
	"chatbot-feedback/internal/infra/tui"
)

var (
	cfgPath string
	devMode bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatbot",
		Short: "Chat with a canned bot and rate the conversation",
		// No subcommand starts the full-screen widget.
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, false, runTUI)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "developer mode: console logs, unredacted message text")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "plain",
		Short: "Line-oriented chat on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, false, runPlain)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "overview",
		Short: "Print the feedback overview and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), false, true, runOverview)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp loads config, sets up logging and the app, then hands off to run.
// Interactive modes log to a file so the terminal stays clean.
func withApp(ctx context.Context, interactive, readOnly bool, run func(context.Context, *application.App) error) error {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if interactive && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), "chatbot-feedback.log")
	}
	if !interactive && cfg.Log.File == "" {
		cfg.Log.Level = zerolog.WarnLevel.String()
	}

	logger, closer, err := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err != nil {
		return err
	}
	defer closer.Close()
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	var opts []application.Option
	if readOnly {
		opts = append(opts, application.ReadOnly())
	}
	a, err := application.New(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	if interactive {
		a.StartAdmin()
	}
	return run(ctx, a)
}

func runTUI(ctx context.Context, a *application.App) error {
	inbox := tui.NewInbox()
	uc := a.NewSession(inbox)
	m := tui.New(ctx, uc, a.Loop, a.Translator, inbox, a.Log)
	err := tui.Run(ctx, m)
	if n := len(uc.PendingReplies()); n > 0 {
		a.Log.Info().Int("pending", n).Msg("quit with replies still pending")
	}
	return err
}

func runPlain(ctx context.Context, a *application.App) error {
	return plain(ctx, a, os.Stdin, os.Stdout)
}

func plain(ctx context.Context, a *application.App, in io.Reader, out io.Writer) error {
	r := repl.New(a.Loop, a.Translator, out, a.Log)
	r.Attach(a.NewSession(r))
	return r.Run(ctx, in)
}

func runOverview(ctx context.Context, a *application.App) error {
	rows, err := a.Feedback.Overview(ctx)
	if err != nil {
		return err
	}
	repl.PrintOverview(os.Stdout, a.Translator, rows)
	return nil
}
