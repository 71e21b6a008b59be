package scanner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/benvon/absolutely-right/internal/aggregate"
	logpkg "github.com/benvon/absolutely-right/internal/logger"
	"github.com/benvon/absolutely-right/internal/patterns"
	"github.com/benvon/absolutely-right/internal/record"
	"go.uber.org/zap"
)

const (
	// RecordFileGlob is the naming convention of record files inside a project
	RecordFileGlob = "*.jsonl"
)

// Stats describes what a scan touched
type Stats struct {
	BaseDirMissing bool
	Projects       int
	Files          int
	Lines          int
	Absorbed       int
}

// Scanner walks a projects directory and feeds every record into an aggregator
type Scanner struct {
	baseDir  string
	set      *patterns.Set
	agg      *aggregate.Aggregator
	location *time.Location
	logger   *zap.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLocation sets the time zone used to turn timestamps into dates
func WithLocation(loc *time.Location) Option {
	return func(s *Scanner) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the logger used for scan diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scanner over baseDir
func New(baseDir string, set *patterns.Set, agg *aggregate.Aggregator, opts ...Option) *Scanner {
	s := &Scanner{
		baseDir:  baseDir,
		set:      set,
		agg:      agg,
		location: time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan processes every project once. A missing base directory is reported
// through Stats and leaves the aggregates empty. Unreadable files and lines
// are skipped. Only context cancellation produces an error.
func (s *Scanner) Scan(ctx context.Context) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			stats.BaseDirMissing = true
			s.logger.Warn("projects_dir_not_found",
				zap.String("path", logpkg.SanitizePath(s.baseDir)),
			)
			return stats, nil
		}
		s.logger.Warn("projects_dir_unreadable",
			zap.String("path", logpkg.SanitizePath(s.baseDir)),
			zap.Error(err),
		)
		stats.BaseDirMissing = true
		return stats, nil
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !s.isDir(entry) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("scan cancelled: %w", err)
		}

		stats.Projects++
		project := ProjectDisplayName(entry.Name())
		if err := s.scanProject(ctx, filepath.Join(s.baseDir, entry.Name()), project, &stats); err != nil {
			return stats, err
		}
	}

	s.logger.Debug("scan_complete",
		zap.Int("projects", stats.Projects),
		zap.Int("files", stats.Files),
		zap.Int("lines", stats.Lines),
		zap.Int("absorbed", stats.Absorbed),
	)
	return stats, nil
}

// isDir follows symlinks so linked project directories are scanned too
func (s *Scanner) isDir(entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(s.baseDir, entry.Name()))
	if err != nil {
		s.logger.Debug("project_symlink_unresolved",
			zap.String("path", logpkg.SanitizePath(entry.Name())),
			zap.Error(err),
		)
		return false
	}
	return info.IsDir()
}

func (s *Scanner) scanProject(ctx context.Context, dir, project string, stats *Stats) error {
	files, err := filepath.Glob(filepath.Join(dir, RecordFileGlob))
	if err != nil {
		return nil
	}
	sort.Strings(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan cancelled: %w", err)
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		stats.Files++
		s.scanFile(path, project, stats)
	}
	return nil
}

// scanFile streams one record file. Open and read failures end this file only.
func (s *Scanner) scanFile(path, project string, stats *Stats) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("record_file_skipped",
			zap.String("path", logpkg.SanitizePath(path)),
			zap.Error(err),
		)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Debug("failed_to_close_record_file", zap.Error(err))
		}
	}()

	reader := bufio.NewReaderSize(f, 256*1024)
	for {
		line, readErr := reader.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			stats.Lines++
			if rec, err := record.Parse(line, s.set, s.location); err == nil {
				if s.agg.Absorb(project, rec) {
					stats.Absorbed++
				}
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				s.logger.Debug("record_file_read_stopped",
					zap.String("path", logpkg.SanitizePath(path)),
					zap.Error(readErr),
				)
			}
			return
		}
	}
}
