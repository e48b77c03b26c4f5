// runlog lists recent runs from the journal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/seyi-falode/blogpilot/internal/common"
	"github.com/seyi-falode/blogpilot/internal/journal"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := common.LoadConfig()
	if cfg.Journal.Path == "" {
		fmt.Fprintln(os.Stderr, "JOURNAL_PATH env var is required")
		os.Exit(2)
	}

	n := 20
	if len(os.Args) >= 2 {
		if v, err := strconv.Atoi(os.Args[1]); err == nil && v > 0 {
			n = v
		}
	}

	ctx := context.Background()
	store, err := journal.Open(ctx, cfg.Journal.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %-10s  %q", r.FinishedAt.Format("2006-01-02 15:04:05"), r.Status, r.Keyword)
		if r.DocURL != "" {
			line += "  " + r.DocURL
		}
		if r.Error != "" {
			line += "  error: " + r.Error
		}
		fmt.Println(line)
	}
}
