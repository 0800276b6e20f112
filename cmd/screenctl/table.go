package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/fadilmartias/resume-screener/internal/bootstrap"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/model"
)

var statusOrder = []model.Status{
	model.StatusPending,
	model.StatusProcessing,
	model.StatusCompleted,
	model.StatusFailed,
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}

func renderCounts(w io.Writer, counts map[model.Status]int64) {
	t := newTable(w, "Status", "Applications")
	var total int64
	for _, s := range statusOrder {
		t.Append([]string{s.String(), strconv.FormatInt(counts[s], 10)})
		total += counts[s]
	}
	t.SetFooter([]string{"total", strconv.FormatInt(total, 10)})
	t.Render()
}

func renderApplications(w io.Writer, apps []model.Application) {
	t := newTable(w, "Application", "Status", "Score", "Summary")
	for _, a := range apps {
		score := "-"
		if a.MatchScore != nil {
			score = strconv.FormatFloat(*a.MatchScore, 'f', 2, 64)
		}
		t.Append([]string{a.ID.String(), a.Status.String(), score, logger.TruncateForLog(a.Summary, 60)})
	}
	t.Render()
}

// drain stops intake and waits up to timeout for queued work to finish.
func drain(c *bootstrap.Container, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Pool.Shutdown(ctx)
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
