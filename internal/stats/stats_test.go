package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkitt4/tcprtt/internal/probes"
)

func ok(ms int) probes.Outcome {
	return probes.Outcome{Success: true, Elapsed: time.Duration(ms) * time.Millisecond}
}

func fail() probes.Outcome {
	return probes.Outcome{Elapsed: time.Second}
}

func TestFreshAccumulatorIsFullySuccessful(t *testing.T) {
	a := New()
	assert.True(t, a.FullySuccessful())
	assert.False(t, a.Snapshot().HasRTT())
	assert.Equal(t, 0.0, a.Snapshot().SuccessRate())
}

func TestRecordMixedOutcomes(t *testing.T) {
	a := New()
	a.Record(ok(10))
	a.Record(fail())
	a.Record(ok(30))

	s := a.Snapshot()
	assert.Equal(t, uint(3), s.Attempts)
	assert.Equal(t, uint(2), s.Successes)
	assert.Equal(t, uint(1), s.Failures())
	assert.Equal(t, 10*time.Millisecond, s.Min)
	assert.Equal(t, 30*time.Millisecond, s.Max)
	assert.Equal(t, 20*time.Millisecond, s.Average())
	assert.InDelta(t, 66.67, s.SuccessRate(), 0.01)
	assert.False(t, a.FullySuccessful())
}

func TestFirstSuccessSetsBothMinAndMax(t *testing.T) {
	a := New()
	a.Record(ok(25))

	s := a.Snapshot()
	assert.Equal(t, 25*time.Millisecond, s.Min)
	assert.Equal(t, 25*time.Millisecond, s.Max)
}

func TestOrderIndependence(t *testing.T) {
	outcomes := []probes.Outcome{ok(12), fail(), ok(3), ok(40), fail(), ok(7)}

	forward := New()
	for _, o := range outcomes {
		forward.Record(o)
	}

	backward := New()
	for i := len(outcomes) - 1; i >= 0; i-- {
		backward.Record(outcomes[i])
	}

	assert.Equal(t, forward.Snapshot(), backward.Snapshot())
}

func TestSummaryWithSuccesses(t *testing.T) {
	a := New()
	a.Record(ok(10))
	a.Record(fail())
	a.Record(ok(30))

	want := "\nSummary:\n" +
		"    3 pings sent.\n" +
		"    2 successful. Success Rate: 66.67%\n" +
		"RTT statistics:\n" +
		"    min=10.000ms, average=20.000ms, max=30.000ms\n"
	assert.Equal(t, want, a.Snapshot().String())
}

func TestSummaryWithoutSuccesses(t *testing.T) {
	a := New()
	a.Record(fail())
	a.Record(fail())

	want := "\nSummary:\n" +
		"    2 pings sent.\n" +
		"    0 successful. Rate: 0.00%\n" +
		"RTT statistics:\n" +
		"    No statistics collected.\n"
	assert.Equal(t, want, a.Snapshot().String())
}

func TestConcurrentReadsSeeWholeRecords(t *testing.T) {
	a := New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			a.Record(ok(5))
		}
	}()

	for i := 0; i < 1000; i++ {
		s := a.Snapshot()
		require.Equal(t, s.Attempts, s.Successes)
		require.Equal(t, time.Duration(s.Successes)*5*time.Millisecond, s.Sum)
	}
	wg.Wait()

	assert.Equal(t, uint(1000), a.Snapshot().Attempts)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 1.5, Millis(1500*time.Microsecond))
}
