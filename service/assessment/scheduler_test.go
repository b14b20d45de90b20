package assessment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"metahub-service/service/distributed_lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTrigger struct {
	mu    sync.Mutex
	calls []TriggerRequest
	err   error
}

func (c *countingTrigger) Trigger(_ context.Context, req TriggerRequest) (*TriggerResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if c.err != nil {
		return nil, c.err
	}
	return &TriggerResult{RunID: "run-" + req.TemplateID, RunTS: time.Now(), AssetCount: 3}, nil
}

func (c *countingTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

const scheduleYAML = `
schedules:
  - id: nightly_core
    cron: "0 0 2 * * *"
    request:
      template_id: core_weighted
      profile_id: self_service_discovery
      label: nightly
      adapter: bulk
      scope:
        tenant: acme
        schema: SALES
      fetch:
        sample_size: 500
  - id: weekly_gate
    cron: "0 0 3 * * 1"
    enabled: false
    request:
      template_id: talk_to_data_gate
`

func TestDecodeSchedules(t *testing.T) {
	specs, err := DecodeSchedules(strings.NewReader(scheduleYAML))
	require.NoError(t, err)
	require.Len(t, specs, 2)

	nightly := specs[0]
	assert.Equal(t, "core_weighted", nightly.Request.TemplateID)
	assert.Equal(t, AdapterBulk, nightly.Request.Adapter)
	assert.Equal(t, "SALES", nightly.Request.Scope.Schema)
	assert.Equal(t, 500, nightly.Request.Fetch.SampleSize)
	assert.True(t, nightly.IsEnabled())
	assert.False(t, specs[1].IsEnabled())

	_, err = DecodeSchedules(strings.NewReader("schedules:\n  - id: x\n"))
	assert.Error(t, err)
	_, err = DecodeSchedules(strings.NewReader("schedules:\n  - {id: x, cron: '* * * * * *'}\n  - {id: x, cron: '* * * * * *'}\n"))
	assert.ErrorContains(t, err, "重复")

	empty, err := DecodeSchedules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSchedulerRunNow(t *testing.T) {
	trigger := &countingTrigger{}
	s := NewScheduler(trigger)
	specs, err := DecodeSchedules(strings.NewReader(scheduleYAML))
	require.NoError(t, err)
	for _, spec := range specs {
		require.NoError(t, s.Add(spec))
	}

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Error(t, s.Start(), "重复启动返回错误")

	require.NoError(t, s.RunNow("nightly_core"))
	assert.Equal(t, 1, trigger.count())
	assert.Error(t, s.RunNow("weekly_gate"), "未启用的调度不注册")

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "run-core_weighted", status[0].LastRunID)
	assert.NotNil(t, status[0].NextRun)
	assert.Empty(t, status[0].LastError)

	trigger.err = errors.New("boom")
	require.NoError(t, s.RunNow("nightly_core"))
	assert.Equal(t, "boom", s.Status()[0].LastError)

	s.Remove("nightly_core")
	assert.Empty(t, s.Status())
}

func TestSchedulerInvalidCron(t *testing.T) {
	s := NewScheduler(&countingTrigger{})
	err := s.Add(ScheduleSpec{ID: "bad", Cron: "every day"})
	assert.Error(t, err)
}

func TestSchedulerLockSkipsHeldSchedule(t *testing.T) {
	trigger := &countingTrigger{}
	lock := distributed_lock.NewMemoryLock()
	s := NewScheduler(trigger)
	s.SetDistributedLock(lock)
	require.NoError(t, s.Add(ScheduleSpec{ID: "hourly", Cron: "0 0 * * * *", Request: TriggerRequest{TemplateID: "core_weighted"}}))

	ok, err := lock.TryLock(context.Background(), "schedule:hourly", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.RunNow("hourly"))
	assert.Equal(t, 0, trigger.count(), "其他实例持有锁时跳过")

	require.NoError(t, lock.Unlock(context.Background(), "schedule:hourly"))
	require.NoError(t, s.RunNow("hourly"))
	assert.Equal(t, 1, trigger.count())
}
