package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/config"
	"github.com/kalambet/mocktalk/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved interview sessions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		defer closeHistory(store)
		return listHistory(cmd.Context(), cmd.OutOrStdout(), store)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <n>",
	Short: "Show the full transcript of session n (as numbered by list)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("session number must be an integer, got %q", args[0])
		}
		store, err := historyStore()
		if err != nil {
			return err
		}
		defer closeHistory(store)
		return showHistory(cmd.Context(), cmd.OutOrStdout(), store, n)
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func historyStore() (history.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return openHistory(cfg, zap.NewNop())
}

func listHistory(ctx context.Context, w io.Writer, store history.Store) error {
	records, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No saved sessions yet.")
		return nil
	}
	for i, rec := range records {
		fmt.Fprintln(w, rec.Label(i+1))
	}
	return nil
}

func showHistory(ctx context.Context, w io.Writer, store history.Store, n int) error {
	rec, err := store.Get(ctx, n)
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("no saved session %d", n)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, colorize(colorBold, rec.Label(n)))
	fmt.Fprintln(w)
	if len(rec.Turns) == 0 {
		fmt.Fprintln(w, "No answers were recorded in this session.")
	}
	for i, t := range rec.Turns {
		var sb strings.Builder
		fmt.Fprintf(&sb, "### Q%d: %s\n\n**Answer:** %s\n", i+1, t.Question, t.Answer)
		if t.Feedback != "" {
			fmt.Fprintf(&sb, "\n**Feedback:**\n\n%s\n", t.Feedback)
		}
		printMarkdown(w, sb.String())
	}
	if rec.Summary != "" {
		printMarkdown(w, "## Summary\n\n"+rec.Summary)
	}
	return nil
}
