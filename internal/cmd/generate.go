package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yunhanz/storymap-api/internal/task"
)

var generateNoCache bool

var generateCmd = &cobra.Command{
	Use:   "generate <text>",
	Short: "Generate map pages for the named figures without the HTTP server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, strings.Join(args, " "))
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateNoCache, "no-cache", false,
		"regenerate even when output files already exist")
}

func runGenerate(cmd *cobra.Command, text string) error {
	ctx := cmd.Context()

	application, err := buildApp(ctx)
	if err != nil {
		return err
	}
	if msg := application.scheduler.ValidateInput(text); msg != "" {
		return errors.New(msg)
	}
	if generateNoCache {
		application.pipeline.SetAllowCache(false)
	}

	taskID := application.store.Create(text)
	if err := application.pipeline.Run(ctx, taskID, text); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	snapshot, err := application.store.Snapshot(taskID)
	if err != nil {
		return err
	}
	return printOutcome(cmd, snapshot)
}

func printOutcome(cmd *cobra.Command, snapshot task.Task) error {
	out := cmd.OutOrStdout()

	if snapshot.Status == task.StatusFailed {
		fmt.Fprintln(out, snapshot.Error)
		os.Exit(1)
	}

	summary := snapshot.Result
	if summary == nil {
		return errors.New("task completed without a result")
	}

	fmt.Fprintln(out, summary.Conclusion)
	for _, files := range summary.Files {
		fmt.Fprintf(out, "  %s\n  %s\n", files.Markdown, files.HTML)
	}
	if summary.Multi != nil {
		fmt.Fprintf(out, "  %s\n", summary.Multi.HTML)
	}

	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}
