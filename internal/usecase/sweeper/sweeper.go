// Package sweeper runs the floor expiration check for every meeting on a
// fixed interval so a stuck queue heals without client interaction.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/assembly-floor/internal/usecase/floor"
	"github.com/johnquangdev/assembly-floor/pkg/jobcontext"
)

const jobType = "floor_sweep"

// MeetingLister lists the meetings to sweep
type MeetingLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// FloorSweeper runs one expiration pass over a meeting
type FloorSweeper interface {
	Sweep(ctx context.Context, meetingID uuid.UUID) (*floor.Result, error)
}

// Config holds sweeper settings
type Config struct {
	Interval       time.Duration
	MeetingTimeout time.Duration
	Concurrency    int
}

// Report summarizes one tick
type Report struct {
	Meetings int
	Changed  int
	Failed   int
}

// Sweeper drives floor.Sweep for every meeting
type Sweeper struct {
	meetings MeetingLister
	floor    FloorSweeper
	cfg      Config
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a sweeper
func New(meetings MeetingLister, floor FloorSweeper, cfg Config, log *zap.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Second
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		meetings: meetings,
		floor:    floor,
		cfg:      cfg,
		log:      log,
	}
}

// Start launches the background loop. It runs until ctx is done or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("sweeper already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.log.Info("sweeper.started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("concurrency", s.cfg.Concurrency),
	)

	s.wg.Add(1)
	go s.loop(ctx, s.stopCh)
	return nil
}

// Stop signals the loop and waits for the in-flight tick to finish
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("sweeper not running")
	}
	close(s.stopCh)
	s.wg.Wait()
	s.running = false

	s.log.Info("sweeper.stopped")
	return nil
}

func (s *Sweeper) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			// shutdown during the wait is not a failure
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("sweeper.tick.failed", zap.Error(err))
			}
		}
	}
}

// RunOnce sweeps every meeting once. Per-meeting failures are logged and
// counted; only a failure to list meetings is returned.
func (s *Sweeper) RunOnce(ctx context.Context) (Report, error) {
	ids, err := s.meetings.ListIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list meetings: %w", err)
	}

	var changed, failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i, id := range ids {
		workerID := i % s.cfg.Concurrency
		g.Go(func() error {
			result, err := s.sweepMeeting(ctx, id, workerID)
			switch {
			case err != nil:
				failed.Add(1)
			case result.Changed:
				changed.Add(1)
			}
			// never cancel the other meetings
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Meetings: len(ids),
		Changed:  int(changed.Load()),
		Failed:   int(failed.Load()),
	}
	if report.Changed > 0 || report.Failed > 0 {
		s.log.Info("sweeper.tick.completed",
			zap.Int("meetings", report.Meetings),
			zap.Int("changed", report.Changed),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *Sweeper) sweepMeeting(ctx context.Context, meetingID uuid.UUID, workerID int) (*floor.Result, error) {
	jobCtx, cancel := jobcontext.JobBegin(ctx, meetingID, jobType, workerID, s.cfg.MeetingTimeout)
	defer cancel()

	var result *floor.Result
	err := jobcontext.JobRun(jobCtx, func(ctx context.Context) error {
		var err error
		result, err = s.floor.Sweep(ctx, meetingID)
		return err
	})

	md := jobcontext.GetJobMetadata(jobCtx)
	fields := []zap.Field{
		zap.String("meeting_id", md.JobID.String()),
		zap.String("job_type", md.JobType),
		zap.Int("worker_id", md.WorkerID),
		zap.Duration("elapsed", time.Since(md.StartTime)),
	}
	if err != nil {
		s.log.Error("sweeper.meeting.failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	if result.Changed {
		s.log.Debug("sweeper.meeting.changed", fields...)
	}
	return result, nil
}
