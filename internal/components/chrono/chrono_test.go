package chrono

import (
	"sync/atomic"
	"testing"
	"time"

	"smartx-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardTimeIsIST(t *testing.T) {
	now := NewStandardTime().Now()
	_, offset := now.Zone()
	require.Equal(t, 5*60*60+30*60, offset)
}

func TestFakeTime(t *testing.T) {
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, IST())
	clock := NewFakeTime(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(15 * time.Minute)
	require.Equal(t, start.Add(15*time.Minute), clock.Now())

	clock.Set(start)
	require.Equal(t, time.Monday, clock.Now().Weekday())
}

func TestStandardCron(t *testing.T) {
	tel := telemetry.NewRecorderAPI()
	cron := NewStandardCron(tel)

	require.Error(t, cron.Cron("not a schedule", func() {}))

	var runs atomic.Int32
	require.NoError(t, cron.Cron("@every 1s", func() { runs.Add(1) }))
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	<-cron.Stop().Done()
	stopped := runs.Load()
	time.Sleep(1200 * time.Millisecond)
	require.Equal(t, stopped, runs.Load())
}
