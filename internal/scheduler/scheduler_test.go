package scheduler

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davedean/lidmeta/internal/common"
)

func TestStartRejectsEmptySchedule(t *testing.T) {
	s := New(common.SchedulerConfig{Schedule: ""}, func() error { return nil }, common.GetLogger())
	err := s.Start()
	assert.Error(t, err)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := New(common.SchedulerConfig{Schedule: "not a cron expr"}, func() error { return nil }, common.GetLogger())
	err := s.Start()
	assert.Error(t, err)
}

func TestTriggerNowRunsBuildAndRecordsStatus(t *testing.T) {
	var calls int64
	s := New(common.SchedulerConfig{Schedule: "0 0 0 * * *"}, func() error {
		atomic.AddInt64(&calls, 1)
		return nil
	}, common.GetLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.TriggerNow())

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) == 1
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.Status().LastRun != nil
	}, time.Second, 10*time.Millisecond)

	status := s.Status()
	assert.Empty(t, status.LastError)
	assert.False(t, status.Running)
}

func TestTriggerNowRejectsWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := New(common.SchedulerConfig{Schedule: "0 0 0 * * *"}, func() error {
		close(started)
		<-release
		return nil
	}, common.GetLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.TriggerNow())
	<-started

	err := s.TriggerNow()
	assert.Error(t, err)
	close(release)
}

func TestRunBuildRecoversFromPanic(t *testing.T) {
	s := New(common.SchedulerConfig{Schedule: "0 0 0 * * *"}, func() error {
		panic("boom")
	}, common.GetLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.TriggerNow())

	require.Eventually(t, func() bool {
		return s.Status().LastError != ""
	}, time.Second, 10*time.Millisecond)

	assert.Contains(t, s.Status().LastError, "boom")
	assert.False(t, s.Status().Running)
}

func TestStatusReportsSchedule(t *testing.T) {
	s := New(common.SchedulerConfig{Schedule: "0 0 */6 * * *"}, func() error { return nil }, common.GetLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	status := s.Status()
	assert.Equal(t, "0 0 */6 * * *", status.Schedule)
	assert.True(t, status.Enabled)
	assert.NotNil(t, status.NextRun)
}

func ExampleScheduler_TriggerNow() {
	s := New(common.SchedulerConfig{Schedule: "0 0 0 * * *"}, func() error { return nil }, common.GetLogger())
	_ = s.Start()
	defer s.Stop()
	if err := s.TriggerNow(); err != nil {
		fmt.Println(err)
	}
}
