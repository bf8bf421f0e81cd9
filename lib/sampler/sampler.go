// Package sampler generates bounded, time-ordered utilization samples
// for instances. It is the data source for the simulated provider.
package sampler

import (
	"math/rand/v2"
	"time"

	"github.com/miragehq/mirage/lib/store"
	"github.com/nrednav/cuid2"
)

// Rand is the injectable randomness source. Tests supply a fixed
// source to assert bounds without flakiness.
type Rand interface {
	Float64() float64
}

// bounds describes a closed interval a value is drawn from.
type bounds struct {
	min, max float64
}

func (b bounds) draw(r Rand) float64 {
	return b.min + r.Float64()*(b.max-b.min)
}

// Live samples sit in a tighter band than backfill so freshly polled
// charts look steadier than synthesized history.
var (
	liveCpu    = bounds{10, 70}
	liveMemory = bounds{20, 80}
	histCpu    = bounds{5, 85}
	histMemory = bounds{10, 90}
	networkIn  = bounds{0, 1.5e6} // bytes/sec
	networkOut = bounds{0, 8e5}
)

// Sampler produces MetricSamples. It has no side effects; output is a
// function of the injected randomness source and clock.
type Sampler struct {
	rnd Rand
	now func() time.Time
}

// New creates a Sampler backed by the process entropy source.
func New() *Sampler {
	return NewWithSource(systemRand{}, time.Now)
}

// NewWithSource creates a Sampler with an explicit randomness source
// and clock.
func NewWithSource(rnd Rand, now func() time.Time) *Sampler {
	return &Sampler{rnd: rnd, now: now}
}

// Sample returns one live utilization reading for the instance at the
// current time. Values never leave their documented bounds.
func (s *Sampler) Sample(instanceId string) store.MetricSample {
	return s.sampleAt(instanceId, s.now(), liveCpu, liveMemory)
}

// SampleHistory returns count backfill samples at interval spacing
// ending at "now", newest first, with strictly decreasing timestamps.
func (s *Sampler) SampleHistory(instanceId string, count int, interval time.Duration) []store.MetricSample {
	now := s.now()
	result := make([]store.MetricSample, 0, count)
	for i := 0; i < count; i++ {
		at := now.Add(-time.Duration(i) * interval)
		result = append(result, s.sampleAt(instanceId, at, histCpu, histMemory))
	}
	return result
}

func (s *Sampler) sampleAt(instanceId string, at time.Time, cpu, memory bounds) store.MetricSample {
	return store.MetricSample{
		Id:                 cuid2.Generate(),
		InstanceId:         instanceId,
		Timestamp:          at,
		CpuUsagePercent:    cpu.draw(s.rnd),
		MemoryUsagePercent: memory.draw(s.rnd),
		NetworkInRate:      networkIn.draw(s.rnd),
		NetworkOutRate:     networkOut.draw(s.rnd),
	}
}

// systemRand adapts the package-level math/rand/v2 source, which is
// safe for concurrent use.
type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
