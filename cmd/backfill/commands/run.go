package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/absolutely-right/internal/aggregate"
	"github.com/benvon/absolutely-right/internal/logger"
	"github.com/benvon/absolutely-right/internal/models"
	"github.com/benvon/absolutely-right/internal/patterns"
	"github.com/benvon/absolutely-right/internal/queue"
	"github.com/benvon/absolutely-right/internal/report"
	"github.com/benvon/absolutely-right/internal/scanner"
	"github.com/benvon/absolutely-right/internal/upload"
	"go.uber.org/zap"
)

// Options controls one backfill run
type Options struct {
	ProjectsDir   string
	PatternsFile  string
	Location      *time.Location
	JSON          bool
	UploadURL     string
	Secret        string
	UploadTimeout time.Duration
}

// IO holds the streams a run talks to
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run scans, reports and optionally uploads. In JSON mode everything except
// the document goes to Err so Out stays parseable.
func Run(ctx context.Context, opts Options, streams IO, zapLogger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	set, err := patterns.LoadFile(opts.PatternsFile)
	if err != nil {
		return err
	}
	if !set.Has(patterns.Highlight) || !set.Has(patterns.Secondary) {
		return fmt.Errorf("pattern set must define %q and %q", patterns.Highlight, patterns.Secondary)
	}

	info := streams.Out
	if opts.JSON {
		info = streams.Err
	}

	printHeader(info, opts, set)

	agg := aggregate.New(set.Names(), patterns.Highlight)
	sc := scanner.New(opts.ProjectsDir, set, agg,
		scanner.WithLocation(opts.Location),
		scanner.WithLogger(zapLogger),
	)

	stats, err := sc.Scan(ctx)
	if err != nil {
		return err
	}
	if stats.BaseDirMissing {
		fmt.Fprintf(info, "Error: Projects directory not found at %s\n", opts.ProjectsDir)
		fmt.Fprintln(info, "Set CLAUDE_PROJECTS env variable to your Claude projects path")
	}
	zapLogger.Debug("scan_complete",
		zap.Int("projects", stats.Projects),
		zap.Int("files", stats.Files),
		zap.Int("lines", stats.Lines),
		zap.Int("absorbed", stats.Absorbed),
	)

	for _, name := range agg.PatternNames() {
		fmt.Fprintf(info, "Found %d '%s' across %d days\n", agg.TotalCount(name), name, agg.DaysWith(name))
	}

	if !agg.HasMatches() {
		fmt.Fprintln(info, "No data found.")
		return nil
	}

	view := report.Build(agg, patterns.Secondary)
	view.Labels = set.Labels()
	if view.SkippedDay != "" {
		fmt.Fprintf(info, "\nSkipping first day (%s) from output and upload\n", view.SkippedDay)
	}
	fmt.Fprintln(info, "\nDaily counts:")
	fmt.Fprintln(info, strings.Repeat("-", 80))

	if opts.JSON {
		return report.WriteJSON(streams.Out, view)
	}
	if err := report.WriteText(streams.Out, view); err != nil {
		return err
	}

	if opts.UploadURL == "" {
		return nil
	}
	return runUpload(ctx, opts, streams, view.Rows(), zapLogger)
}

func printHeader(w io.Writer, opts Options, set *patterns.Set) {
	fmt.Fprintln(w, "Claude Pattern Counter Backfill")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Projects directory: %s\n", opts.ProjectsDir)
	fmt.Fprintln(w, "Tracking patterns:")
	for _, p := range set.Patterns() {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Expr)
	}
	if opts.UploadURL != "" {
		fmt.Fprintf(w, "Will upload to: %s\n", logger.SanitizeURL(opts.UploadURL))
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

func runUpload(ctx context.Context, opts Options, streams IO, rows []models.DailyRow, zapLogger *zap.Logger) error {
	fmt.Fprintln(streams.Out, "\n"+strings.Repeat("-", 50))
	if len(rows) == 0 {
		fmt.Fprintln(streams.Out, "No days with data to upload.")
		return nil
	}

	if isQueueURL(opts.UploadURL) && opts.Secret != "" {
		fmt.Fprintln(streams.Out, "Note: the secret is not used for queue uploads; broker credentials come from the URL.")
		zapLogger.Warn("upload_secret_ignored_for_queue", zap.String("url", logger.SanitizeURL(opts.UploadURL)))
	}

	ok, err := upload.Confirm(streams.In, streams.Out, len(rows))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(streams.Out, "Upload cancelled.")
		return nil
	}

	up, closeFn, err := newUploader(opts, zapLogger)
	if err != nil {
		return err
	}
	defer closeFn()

	summary := upload.Run(ctx, up, rows, streams.Out)
	if summary.Aborted {
		zapLogger.Warn("upload_aborted", zap.Int("succeeded", summary.Succeeded))
	}
	if summary.Succeeded > 0 && !isQueueURL(opts.UploadURL) {
		fmt.Fprintf(streams.Out, "\nView at: %s\n", logger.SanitizeURL(opts.UploadURL))
	}
	return nil
}

// newUploader picks the transport from the URL scheme. amqp:// URLs publish
// straight to the ingest queue; anything else goes through the HTTP API.
func newUploader(opts Options, zapLogger *zap.Logger) (upload.Uploader, func(), error) {
	if isQueueURL(opts.UploadURL) {
		q, err := queue.NewRabbitMQQueue(opts.UploadURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to queue: %w", err)
		}
		return upload.NewQueueUploader(q), func() {
			if err := q.Close(); err != nil {
				zapLogger.Warn("queue_close_failed", zap.String("error", logger.SanitizeError(err)))
			}
		}, nil
	}

	up, err := upload.NewHTTPUploader(opts.UploadURL, opts.Secret, opts.UploadTimeout, upload.WithLogger(zapLogger))
	if err != nil {
		return nil, nil, err
	}
	return up, func() {}, nil
}

func isQueueURL(raw string) bool {
	return strings.HasPrefix(raw, "amqp://") || strings.HasPrefix(raw, "amqps://")
}
