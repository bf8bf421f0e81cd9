package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same fraction, pinning samples to a
// known point inside the bounds.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestSample_ValuesWithinBounds(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	for _, v := range []float64{0, 0.25, 0.5, 0.99} {
		s := NewWithSource(fixedRand{v}, fixedClock(now))
		sample := s.Sample("inst-1")

		assert.GreaterOrEqual(t, sample.CpuUsagePercent, 10.0)
		assert.LessOrEqual(t, sample.CpuUsagePercent, 70.0)
		assert.GreaterOrEqual(t, sample.MemoryUsagePercent, 20.0)
		assert.LessOrEqual(t, sample.MemoryUsagePercent, 80.0)
		assert.GreaterOrEqual(t, sample.NetworkInRate, 0.0)
		assert.GreaterOrEqual(t, sample.NetworkOutRate, 0.0)
	}
}

func TestSample_PopulatesIdentityAndTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	s := NewWithSource(fixedRand{0.5}, fixedClock(now))

	sample := s.Sample("inst-1")
	assert.NotEmpty(t, sample.Id)
	assert.Equal(t, "inst-1", sample.InstanceId)
	assert.Equal(t, now, sample.Timestamp)
}

func TestSampleHistory_NewestFirstStrictlyDecreasing(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	s := NewWithSource(fixedRand{0.5}, fixedClock(now))

	history := s.SampleHistory("inst-1", 24, 30*time.Minute)
	require.Len(t, history, 24)

	// First sample lands exactly on "now", the rest walk backwards.
	assert.Equal(t, now, history[0].Timestamp)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.Before(history[i-1].Timestamp),
			"timestamps must strictly decrease")
		assert.Equal(t, 30*time.Minute, history[i-1].Timestamp.Sub(history[i].Timestamp))
	}

	// Nothing in the future.
	for _, sample := range history {
		assert.False(t, sample.Timestamp.After(now))
	}
}

func TestSampleHistory_BackfillBounds(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	// Extremes of the randomness source must stay inside the wider
	// backfill bands.
	for _, v := range []float64{0, 0.999} {
		s := NewWithSource(fixedRand{v}, fixedClock(now))
		for _, sample := range s.SampleHistory("inst-1", 5, time.Minute) {
			assert.GreaterOrEqual(t, sample.CpuUsagePercent, 5.0)
			assert.LessOrEqual(t, sample.CpuUsagePercent, 85.0)
			assert.GreaterOrEqual(t, sample.MemoryUsagePercent, 10.0)
			assert.LessOrEqual(t, sample.MemoryUsagePercent, 90.0)
		}
	}
}

func TestSampleHistory_ZeroCount(t *testing.T) {
	s := New()
	assert.Empty(t, s.SampleHistory("inst-1", 0, time.Minute))
}
