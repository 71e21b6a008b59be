package upload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benvon/absolutely-right/internal/models"
	"github.com/benvon/absolutely-right/internal/patterns"
)

// Summary counts the upload outcomes of one run
type Summary struct {
	Succeeded int
	Failed    int
	Aborted   bool
}

// Run uploads rows in order, printing one status line per row. An Abort
// result counts as a single failure and skips every remaining row.
func Run(ctx context.Context, up Uploader, rows []models.DailyRow, out io.Writer) Summary {
	var s Summary

	fmt.Fprintln(out, "Uploading to API...")
	for _, row := range rows {
		line := fmt.Sprintf("  Uploading %s: %s=%2d, %s=%2d, total=%3d...",
			row.Day, patterns.Highlight, row.Count, patterns.Secondary, row.RightCount, row.TotalMessages)
		fmt.Fprintf(out, "%-75s", line)

		res := up.Upload(ctx, row)
		if res.Outcome == Success {
			fmt.Fprintln(out, "✓")
			s.Succeeded++
			continue
		}

		fmt.Fprintln(out, "✗")
		s.Failed++
		if res.Outcome == Abort {
			s.Aborted = true
			break
		}
	}

	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "Upload complete: %d successful, %d failed\n", s.Succeeded, s.Failed)
	return s
}
