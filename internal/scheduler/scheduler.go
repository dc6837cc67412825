package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

// ErrNotRunning is returned when a loop is started before Run.
var ErrNotRunning = errors.New("scheduler is not running")

// Poller runs one ingestion cycle for a source.
type Poller interface {
	Poll(ctx context.Context) (int, error)
}

// PollerFactory builds the poller for a source's loop.
type PollerFactory func(src model.Source) Poller

// SourceLister lists the registry at startup.
type SourceLister interface {
	ListSources(ctx context.Context) ([]model.Source, error)
}

type handle struct {
	name   string
	cancel context.CancelFunc
	paused atomic.Bool
	done   chan struct{}
}

// Scheduler owns one long-lived loop per source, keyed by source ID.
type Scheduler struct {
	sources   SourceLister
	newPoller PollerFactory
	interval  time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	base  context.Context
	loops map[int64]*handle
}

// NewScheduler creates a scheduler that polls each source at the given interval.
func NewScheduler(sources SourceLister, newPoller PollerFactory, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sources:   sources,
		newPoller: newPoller,
		interval:  interval,
		logger:    logger,
		loops:     make(map[int64]*handle),
	}
}

// Run starts a loop for every active source, then blocks until ctx is
// cancelled and all loops have exited.
func (s *Scheduler) Run(ctx context.Context) error {
	srcs, err := s.sources.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}

	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	started := 0
	for _, src := range srcs {
		if !src.Active {
			continue
		}
		if err := s.Start(src); err != nil {
			return err
		}
		started++
	}
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"sources", started,
	)

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	s.StopAll()
	return nil
}

// Start launches the loop for src. Starting an already running source is a no-op.
func (s *Scheduler) Start(src model.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return ErrNotRunning
	}
	if _, ok := s.loops[src.ID]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(s.base)
	h := &handle{name: src.Name, cancel: cancel, done: make(chan struct{})}
	s.loops[src.ID] = h

	go s.loop(ctx, h, s.newPoller(src))
	s.logger.Debug("source loop started", "source", src.Name, "manual", src.Manual())
	return nil
}

// Stop cancels the loop for id and waits for it to exit. It reports whether a
// loop was running.
func (s *Scheduler) Stop(id int64) bool {
	s.mu.Lock()
	h, ok := s.loops[id]
	delete(s.loops, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	<-h.done
	return true
}

// Pause keeps the loop for id resident but skips its cycles.
func (s *Scheduler) Pause(id int64) bool {
	h := s.get(id)
	if h == nil {
		return false
	}
	h.paused.Store(true)
	s.logger.Info("source paused", "source", h.name)
	return true
}

// Resume re-enables a paused loop.
func (s *Scheduler) Resume(id int64) bool {
	h := s.get(id)
	if h == nil {
		return false
	}
	h.paused.Store(false)
	s.logger.Info("source resumed", "source", h.name)
	return true
}

// SetActive applies an activation change to the live loops: pause or resume
// an existing loop, or start one for a source that never had one.
func (s *Scheduler) SetActive(src model.Source) error {
	if !src.Active {
		s.Pause(src.ID)
		return nil
	}
	if s.Resume(src.ID) {
		return nil
	}
	return s.Start(src)
}

// Paused reports whether the loop for id exists and is paused.
func (s *Scheduler) Paused(id int64) bool {
	h := s.get(id)
	return h != nil && h.paused.Load()
}

// StopAll cancels every loop and waits for them to exit.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	loops := s.loops
	s.loops = make(map[int64]*handle)
	s.mu.Unlock()

	for _, h := range loops {
		h.cancel()
	}
	for _, h := range loops {
		<-h.done
	}
}

// Running returns the IDs of sources with a live loop, in ascending order.
func (s *Scheduler) Running() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.loops))
	for id := range s.loops {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Scheduler) get(id int64) *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loops[id]
}

// loop runs one immediate cycle, then one per interval, until ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context, h *handle, p Poller) {
	defer close(h.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.cycle(ctx, h, p)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// cycle absorbs every poll failure; one source's errors never reach another loop.
func (s *Scheduler) cycle(ctx context.Context, h *handle, p Poller) {
	if ctx.Err() != nil || h.paused.Load() {
		return
	}
	if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("poll failed",
			"source", h.name,
			"error", err,
		)
	}
}
