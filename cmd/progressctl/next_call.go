package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fadilmartias/mentor-progress/internal/progress"
	"github.com/spf13/cobra"
)

type nextCallOptions struct {
	statusFile    string
	scheduledFile string
	full          bool
}

// nextCallReport is printed with --full.
type nextCallReport struct {
	NextCall        progress.NextCallView    `json:"next_call"`
	ProgressPercent float64                  `json:"progress_percent"`
	Milestones      []progress.ChecklistItem `json:"milestones"`
	Timeline        []progress.TimelineEntry `json:"timeline"`
}

func newNextCallCmd() *cobra.Command {
	opts := &nextCallOptions{}
	cmd := &cobra.Command{
		Use:   "next-call",
		Short: "Compute the next mentor call from a status file",
		Long:  "Read a candidate status payload (and optionally a scheduled calls payload) as returned by the backend and print the next call view as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNextCall(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.statusFile, "status", "s", "", "Path to the candidate status JSON")
	cmd.Flags().StringVar(&opts.scheduledFile, "scheduled", "", "Path to the scheduled calls JSON")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Include progress percent, milestones and timeline")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func runNextCall(cmd *cobra.Command, opts *nextCallOptions) error {
	raw, err := os.ReadFile(opts.statusFile)
	if err != nil {
		return fmt.Errorf("failed to read status file: %w", err)
	}
	status, err := progress.ParseStatus(raw)
	if err != nil {
		return fmt.Errorf("failed to parse status file: %w", err)
	}

	var scheduled []progress.ScheduledCall
	if opts.scheduledFile != "" {
		raw, err := os.ReadFile(opts.scheduledFile)
		if err != nil {
			return fmt.Errorf("failed to read scheduled calls file: %w", err)
		}
		scheduled, err = progress.ParseScheduledCalls(raw)
		if err != nil {
			return fmt.Errorf("failed to parse scheduled calls file: %w", err)
		}
	}

	view := progress.ComputeNextCall(status, progress.ScheduledStages(scheduled))
	var out any = view
	if opts.full {
		out = nextCallReport{
			NextCall:        view,
			ProgressPercent: progress.ProgressPercent(status),
			Milestones:      progress.MilestoneChecklist(status),
			Timeline:        progress.Timeline(status, scheduled),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
