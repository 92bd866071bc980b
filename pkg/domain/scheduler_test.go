package domain

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Start_RejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(discardLogger())

	err := s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 0}, func() {})
	assert.True(t, errors.Is(err, ErrInvalidSchedule))

	err = s.Start(ScheduleSpec{Mode: ScheduleDisabled}, func() {})
	assert.True(t, errors.Is(err, ErrInvalidSchedule))

	assert.Equal(t, StateIdle, s.State())
}

func TestScheduler_Start_ArmsTimer(t *testing.T) {
	s := NewScheduler(discardLogger())
	defer s.Stop()

	err := s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 60}, func() {})

	require.Nil(t, err)
	assert.Equal(t, StateArmed, s.State())

	next, ok := s.NextFire()
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), time.Until(next).Seconds(), 2)
}

func TestScheduler_FireWhileRunningIsSkipped(t *testing.T) {
	s := NewScheduler(discardLogger())
	defer s.Stop()

	var runs int32
	started := make(chan struct{})
	release := make(chan struct{})

	err := s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 60}, func() {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-release
	})
	require.Nil(t, err)

	go s.fire()
	<-started

	assert.Equal(t, StateRunning, s.State())

	// an overlapping fire is dropped, never queued
	s.fire()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(release)

	assert.Eventually(t, func() bool { return s.State() == StateArmed }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	// the skipped fire did not produce a catch-up run after rearming
	next, ok := s.NextFire()
	require.True(t, ok)
	assert.Greater(t, time.Until(next), 59*time.Minute)
}

func TestScheduler_ManualRunGuard(t *testing.T) {
	s := NewScheduler(discardLogger())

	require.Nil(t, s.BeginManualRun())

	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, ErrBusy, s.BeginManualRun())

	s.EndManualRun()

	// no schedule was active, so the machine returns to idle
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.BeginManualRun())
	s.EndManualRun()
}

func TestScheduler_ManualRunOnStoppedSchedulerStaysStopped(t *testing.T) {
	s := NewScheduler(discardLogger())

	require.Nil(t, s.Start(ScheduleSpec{Mode: ScheduleHourly}, func() {}))
	s.Stop()

	require.Nil(t, s.BeginManualRun())
	s.EndManualRun()

	assert.Equal(t, StateStopped, s.State())

	_, ok := s.NextFire()
	assert.False(t, ok)
}

func TestScheduler_ManualRunRearmsActiveSchedule(t *testing.T) {
	s := NewScheduler(discardLogger())
	defer s.Stop()

	require.Nil(t, s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 60}, func() {}))
	require.Nil(t, s.BeginManualRun())

	s.EndManualRun()

	assert.Equal(t, StateArmed, s.State())

	_, ok := s.NextFire()
	assert.True(t, ok)
}

func TestScheduler_StopCancelsTimer(t *testing.T) {
	s := NewScheduler(discardLogger())

	require.Nil(t, s.Start(ScheduleSpec{Mode: ScheduleHourly}, func() {}))

	s.Stop()

	assert.Equal(t, StateStopped, s.State())

	_, ok := s.NextFire()
	assert.False(t, ok)
}

func TestScheduler_StopDuringRunLetsItFinish(t *testing.T) {
	s := NewScheduler(discardLogger())

	started := make(chan struct{})
	release := make(chan struct{})

	require.Nil(t, s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 60}, func() {
		started <- struct{}{}
		<-release
	}))

	go s.fire()
	<-started

	s.Stop()
	assert.Equal(t, StateRunning, s.State())

	close(release)

	assert.Eventually(t, func() bool { return s.State() == StateStopped }, time.Second, 10*time.Millisecond)
}

func TestScheduler_ReconfigureWhileArmed(t *testing.T) {
	s := NewScheduler(discardLogger())
	defer s.Stop()

	require.Nil(t, s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 60}, func() {}))
	require.Nil(t, s.Reconfigure(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 5}))

	next, ok := s.NextFire()
	require.True(t, ok)
	assert.Less(t, time.Until(next), 6*time.Minute)
}

func TestScheduler_ReconfigureWhileRunningAppliesAfterRun(t *testing.T) {
	s := NewScheduler(discardLogger())
	defer s.Stop()

	started := make(chan struct{})
	release := make(chan struct{})

	require.Nil(t, s.Start(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 60}, func() {
		started <- struct{}{}
		<-release
	}))

	go s.fire()
	<-started

	require.Nil(t, s.Reconfigure(ScheduleSpec{Mode: ScheduleCustom, IntervalMinutes: 5}))

	// the in-flight run still sees the old spec
	s.mu.Lock()
	assert.Equal(t, 60, s.spec.IntervalMinutes)
	s.mu.Unlock()

	close(release)

	assert.Eventually(t, func() bool { return s.State() == StateArmed }, time.Second, 10*time.Millisecond)

	next, ok := s.NextFire()
	require.True(t, ok)
	assert.Less(t, time.Until(next), 6*time.Minute)
}
