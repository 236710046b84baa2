package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/posting-assistant/internal/db"
	"github.com/jonathan/posting-assistant/internal/observability"
	"github.com/jonathan/posting-assistant/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Fill a job posting interactively in the terminal",
	Long: `Run one posting dialogue on stdin and stdout.

Type /record to show the posting so far and /quit to stop early.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}
	// Keep the terminal for the dialogue unless asked otherwise.
	if !cfg.Verbose && cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	engine, client, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	var opts []session.ManagerOption
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
		opts = append(opts, session.WithRepository(database))
	}

	manager := session.NewManager(session.NewMemoryStore(), engine, logger, opts...)
	return chatLoop(ctx, manager, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop runs one session until it finalizes, the input ends or the user
// quits, then prints the posting and what is still missing.
//
//nolint:errcheck // writing to the terminal; errors are not recoverable
func chatLoop(ctx context.Context, m *session.Manager, in io.Reader, out io.Writer) error {
	id, err := m.CreateSession(ctx)
	if err != nil {
		return err
	}
	printer := observability.NewPrinter(out)
	fmt.Fprintln(out, "Posting assistant. Type /record to see the posting, /quit to stop.")

	scanner := bufio.NewScanner(in)
loop:
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			break loop
		case "/record":
			snap, err := m.Snapshot(ctx, id)
			if err != nil {
				return err
			}
			printer.PrintRecord(snap.Record, snap.Language)
			continue
		}

		result, err := m.PostTurn(ctx, id, line)
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}
		fmt.Fprintln(out, result.DisplayText)
		if result.IsTerminal {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	snap, err := m.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printer.PrintRecord(snap.Record, snap.Language)
	printer.PrintMissing(snap.Record)
	return nil
}
