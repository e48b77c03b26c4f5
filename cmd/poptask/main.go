// poptask polls an existing POP task id and prints the finished report.
// Useful when a run died after submission and the task id is in the log.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/seyi-falode/blogpilot/internal/common"
	"github.com/seyi-falode/blogpilot/internal/pop"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: poptask <task_id>")
		os.Exit(2)
	}
	taskID := os.Args[1]

	cfg := common.LoadConfig()
	client := pop.NewClient(pop.Config{
		APIKey:  cfg.POP.APIKey,
		BaseURL: cfg.POP.BaseURL,
	}, logger)
	engine := pop.NewEngine(client, logger, pop.WithDeadline(cfg.POP.PollTimeout))

	rep, err := engine.Wait(context.Background(), taskID)
	if err != nil {
		logger.Error("poll failed", "task_id", taskID, "error", err)
		os.Exit(1)
	}

	fmt.Printf("task %s done: score=%.1f content_bytes=%d\n", taskID, rep.Score, len(rep.Content))
	if rep.Content != "" {
		fmt.Println(rep.Content)
	}
}
