// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/gookit/color"
	"github.com/specialistvlad/lakegrid/internal/runstore"
)

// History prints the last n runs of the pipeline with their task states.
func (a *App) History(ctx context.Context, n int) error {
	runs, err := a.runs.ListRuns(ctx, a.model.Pipeline.Name, n)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(a.outW, "no runs recorded for pipeline %s\n", a.model.Pipeline.Name)
		return nil
	}

	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTRIGGER\tSTARTED\tDURATION\tSTATE")
	for _, r := range runs {
		duration := "-"
		if r.EndedAt != nil {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Trigger, r.StartedAt.Format(time.RFC3339), duration, colorRunState(r.State))

		tis, err := a.runs.ListTaskInstances(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, ti := range tis {
			fmt.Fprintf(tw, "  %s\ttry %d\t\t\t%s\n", ti.TaskID, ti.TryNumber, colorTaskState(ti.State))
		}
	}
	return tw.Flush()
}

func colorRunState(s runstore.RunState) string {
	switch s {
	case runstore.RunSuccess:
		return color.Green.Sprint(s)
	case runstore.RunFailed:
		return color.Red.Sprint(s)
	default:
		return color.Yellow.Sprint(s)
	}
}

func colorTaskState(s runstore.TaskState) string {
	switch s {
	case runstore.TaskSuccess:
		return color.Green.Sprint(s)
	case runstore.TaskFailed, runstore.TaskUpstreamFailed:
		return color.Red.Sprint(s)
	case runstore.TaskSkipped:
		return color.Gray.Sprint(s)
	default:
		return color.Yellow.Sprint(s)
	}
}
