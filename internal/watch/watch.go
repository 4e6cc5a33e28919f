// Package watch periodically scans configured directories for
// documents that have no translated artifacts yet and enqueues them
// as translation jobs.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/boyingliu01/pdf-translation/internal/jobs"
	"github.com/boyingliu01/pdf-translation/pkg/file"
	"github.com/boyingliu01/pdf-translation/pkg/log"
)

// defaultExtensions are the document types the scanner considers when
// the config does not list its own.
var defaultExtensions = []string{".txt", ".md"}

// artifactMarkers identify files the pipeline itself produced; they
// must never be re-enqueued as inputs.
var artifactMarkers = []string{".mono", ".dual", ".glossary"}

type Config struct {
	Dirs       []string
	CronExpr   string
	Extensions []string
	LangIn     string
	LangOut    string
	OutputDir  string
}

type Service struct {
	cfg   Config
	queue *jobs.Queue
	cron  *cron.Cron
	group singleflight.Group
}

func NewService(cfg Config, queue *jobs.Queue, c *cron.Cron) *Service {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = defaultExtensions
	}
	return &Service{
		cfg:   cfg,
		queue: queue,
		cron:  c,
	}
}

// Schedule registers the recurring scan with the cron runner. The
// caller starts and stops the cron instance.
func (s *Service) Schedule(ctx context.Context) error {
	if len(s.cfg.Dirs) == 0 {
		return fmt.Errorf("watch requires at least one directory")
	}
	log.Info("Scheduling watch scan: %s", s.cfg.CronExpr)

	runFunc := func() {
		_, _, _ = s.group.Do("scan", func() (any, error) {
			if err := s.Scan(ctx); err != nil {
				log.Error("Watch scan failed: %v", err)
			}
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cfg.CronExpr, runFunc)
	return err
}

// Scan walks every configured directory once and enqueues each
// untranslated document it finds. Directories are scanned
// concurrently; a failure in one does not stop the others.
func (s *Service) Scan(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, dir := range s.cfg.Dirs {
		dir := dir
		g.Go(func() error {
			enqueued, err := s.scanDir(ctx, dir)
			if err != nil {
				return fmt.Errorf("scan %s: %w", dir, err)
			}
			log.Info("Scanned %s: %d new job(s)", dir, enqueued)
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) scanDir(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, fmt.Errorf("directory %s does not exist", dir)
	}

	enqueued := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !s.isCandidate(path) {
			return nil
		}
		if s.isTranslated(path) {
			return nil
		}
		_, created := s.queue.Enqueue(jobs.EnqueueRequest{
			Source:    "watch",
			DedupeKey: path + "|" + s.cfg.LangOut,
			Payload: jobs.JobPayload{
				InputFile: path,
				OutputDir: s.cfg.OutputDir,
				LangIn:    s.cfg.LangIn,
				LangOut:   s.cfg.LangOut,
			},
		})
		if created {
			log.Info("Enqueued %s", path)
			enqueued++
		}
		return nil
	})
	return enqueued, err
}

// isCandidate reports whether path looks like a source document: a
// watched extension and not an artifact the pipeline wrote itself.
func (s *Service) isCandidate(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(s.cfg.Extensions, ext) {
		return false
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, marker := range artifactMarkers {
		if strings.Contains(stem, marker) {
			return false
		}
	}
	return true
}

// isTranslated reports whether the mono artifact for this document
// already exists, either next to the source or in the configured
// output directory.
func (s *Service) isTranslated(path string) bool {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	name := fmt.Sprintf("%s.%s.mono%s", stem, s.cfg.LangOut, ext)
	noWatermark := fmt.Sprintf("%s.%s.mono.no_watermark%s", stem, s.cfg.LangOut, ext)

	dirs := []string{filepath.Dir(path)}
	if s.cfg.OutputDir != "" {
		dirs = append(dirs, s.cfg.OutputDir)
	}
	for _, dir := range dirs {
		if file.Exists(filepath.Join(dir, name)) || file.Exists(filepath.Join(dir, noWatermark)) {
			return true
		}
	}
	return false
}
