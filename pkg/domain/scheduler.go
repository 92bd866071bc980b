package domain

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned when a run is requested while another is in flight.
// Overlap is never allowed: requests are rejected, not queued.
var ErrBusy = errors.New("a backup run is already in progress")

type SchedulerState int

const (
	StateIdle SchedulerState = iota
	StateArmed
	StateRunning
	StateStopped
)

func (s SchedulerState) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Scheduler owns a single recurring timer and drives at most one run at a
// time. A timer fire that arrives while a run is executing is skipped and
// logged, never queued. After a run completes, the next fire is recomputed
// from the current wall clock, so a long run shifts subsequent fires
// instead of causing a burst of catch-up runs.
type Scheduler struct {
	logger logrus.FieldLogger

	mu            sync.Mutex
	state         SchedulerState
	spec          ScheduleSpec
	pending       *ScheduleSpec
	timer         *time.Timer
	nextFire      time.Time
	stopRequested bool
	resume        SchedulerState
	runFn         func()
}

func NewScheduler(logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		logger: logger,
		state:  StateIdle,
	}
}

// Start transitions Idle/Stopped to Armed and installs the timer. runFn is
// invoked on each fire from the scheduler's goroutine.
func (s *Scheduler) Start(spec ScheduleSpec, runFn func()) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Mode == ScheduleDisabled {
		return errors.Wrap(ErrInvalidSchedule, "cannot start a disabled schedule")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateArmed || s.state == StateRunning {
		return errors.New("scheduler already started")
	}

	s.spec = spec
	s.runFn = runFn
	s.stopRequested = false
	s.state = StateArmed

	return s.armLocked(time.Now())
}

// Stop cancels the pending timer. An in-flight run is allowed to finish,
// but no further fire is scheduled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextFire = time.Time{}

	if s.state == StateRunning {
		s.stopRequested = true
		return
	}

	s.state = StateStopped
	s.logger.Info("Scheduler stopped")
}

// Reconfigure replaces the schedule spec. While Armed the timer is
// reinstalled immediately; while Running the new spec takes effect once
// the in-flight run completes.
func (s *Scheduler) Reconfigure(spec ScheduleSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning:
		pending := spec
		s.pending = &pending
		return nil

	case StateArmed:
		s.spec = spec

		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}

		if spec.Mode == ScheduleDisabled {
			s.state = StateStopped
			s.nextFire = time.Time{}
			return nil
		}

		return s.armLocked(time.Now())

	default:
		s.spec = spec
		return nil
	}
}

func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// NextFire reports the pending fire time, if the timer is armed.
func (s *Scheduler) NextFire() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextFire, !s.nextFire.IsZero()
}

// BeginManualRun claims the run slot for an interactive "run now" request.
// It fails with ErrBusy while a run is in flight; a scheduled fire that
// lands during the manual run is skipped by the same guard.
func (s *Scheduler) BeginManualRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return ErrBusy
	}

	s.resume = s.state
	s.state = StateRunning
	return nil
}

// EndManualRun releases the slot claimed by BeginManualRun and rearms the
// timer if a schedule is active.
func (s *Scheduler) EndManualRun() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finishRunLocked()
}

func (s *Scheduler) fire() {
	s.mu.Lock()

	if s.state != StateArmed {
		// Never overlap: the fire is dropped, not queued.
		if s.state == StateRunning {
			s.logger.Warn("Skipping scheduled backup, another run is in flight")
		}

		s.mu.Unlock()
		return
	}

	s.resume = StateArmed
	s.state = StateRunning
	s.nextFire = time.Time{}
	runFn := s.runFn
	s.mu.Unlock()

	runFn()

	s.mu.Lock()
	s.finishRunLocked()
	s.mu.Unlock()
}

// finishRunLocked transitions Running back to the state the run entered
// from, applying any spec replaced during the run, and recomputes the next
// fire time from the current wall clock rather than from the missed fire.
func (s *Scheduler) finishRunLocked() {
	if s.pending != nil {
		s.spec = *s.pending
		s.pending = nil
	}

	if s.stopRequested || s.resume == StateStopped {
		s.state = StateStopped
		s.stopRequested = false
		s.nextFire = time.Time{}
		return
	}

	// A manual run over an inactive scheduler leaves it inactive.
	if s.resume != StateArmed || s.spec.Mode == ScheduleDisabled {
		s.state = StateIdle
		s.nextFire = time.Time{}
		return
	}

	s.state = StateArmed

	if err := s.armLocked(time.Now()); err != nil {
		s.logger.WithError(err).Error("Unable to rearm scheduler")
		s.state = StateStopped
	}
}

func (s *Scheduler) armLocked(now time.Time) error {
	next, err := s.spec.NextFire(now)
	if err != nil {
		return err
	}

	s.nextFire = next

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(next.Sub(now), s.fire)

	s.logger.WithFields(logrus.Fields{
		"mode":      s.spec.Mode.String(),
		"next_fire": next.Format(time.RFC3339),
	}).Debug("Scheduler armed")

	return nil
}
