package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"data-loader/core/extract"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service runs jobs defined in a directory and keeps their last report.
type Service struct {
	runner    *Runner
	db        *gorm.DB
	reader    extract.Reader
	dir       string
	publisher *Publisher
	logger    *zap.Logger

	locks *tableLocks

	mu      sync.Mutex
	running map[string]bool
	reports map[string]*Report
	wg      sync.WaitGroup
}

// NewService creates a job service. publisher may be nil.
func NewService(runner *Runner, db *gorm.DB, reader extract.Reader, dir string, publisher *Publisher, logger *zap.Logger) *Service {
	return &Service{
		runner:    runner,
		db:        db,
		reader:    reader,
		dir:       dir,
		publisher: publisher,
		logger:    logger,
		locks:     newTableLocks(),
		running:   make(map[string]bool),
		reports:   make(map[string]*Report),
	}
}

// List returns the names of the job files in the directory, sorted.
func (s *Service) List() ([]string, error) {
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			names = append(names, strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the definition of a named job.
func (s *Service) Load(name string) (*Job, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		job, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		job.Name = name
		return job, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrJobNotFound, name)
}

// Run executes a job synchronously. It waits for any run writing the same
// tables, keeps the report as the job's last one and publishes it when a
// publisher is configured. A failed upload is logged, not returned.
func (s *Service) Run(ctx context.Context, job *Job, opts RunOptions) (*Report, error) {
	release := s.locks.acquire(job.Tables())
	defer release()

	report, err := s.runner.Run(ctx, job, opts)

	s.mu.Lock()
	s.reports[job.Name] = report
	s.mu.Unlock()

	if s.publisher.Enabled() {
		if key, perr := s.publisher.Publish(ctx, report); perr != nil {
			s.logger.Warn("Failed to publish report", zap.String("job", job.Name), zap.Error(perr))
		} else {
			s.logger.Info("Published report", zap.String("job", job.Name), zap.String("key", key))
		}
	}
	return report, err
}

// Start loads a named job and runs it in the background under ctx.
// It returns ErrJobRunning when the job is already running.
func (s *Service) Start(ctx context.Context, name string, opts RunOptions) error {
	job, err := s.Load(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	s.running[name] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.running, name)
			s.mu.Unlock()
		}()

		if _, err := s.Run(ctx, job, opts); err != nil {
			s.logger.Error("Background job failed", zap.String("job", name), zap.Error(err))
		}
	}()
	return nil
}

// Running reports whether a job is currently running in the background.
func (s *Service) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[name]
}

// LastReport returns the report of the job's last run.
func (s *Service) LastReport(name string) (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[name]
	return r, ok
}

// Check runs the preflight of a named job.
func (s *Service) Check(ctx context.Context, name string) ([]Problem, error) {
	job, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return Check(ctx, s.db, s.reader, job)
}

// Wait blocks until every background run has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}
