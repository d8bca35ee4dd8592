package simul

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"multicipher/keyset"
)

func TestMeasureTime(t *testing.T) {
	specs := []keyset.Spec{{KeyLength: 128, CipherSteps: 2}, {KeyLength: 256, CipherSteps: 4}}
	results, err := MeasureTime(2, specs, []int{0, 100})
	require.NoError(t, err)
	require.Equal(t, 2*2*2*6, results.Len())
	iterations := map[int]int{}
	for _, r := range results.rows {
		require.True(t, r.value >= 0)
		require.Equal(t, 2, r.nRepeat)
		require.InDelta(t, r.userTime+r.systemTime, r.value, 1e-9)
		iterations[r.iteration]++
	}
	require.Equal(t, map[int]int{0: 2 * 2 * 6, 1: 2 * 2 * 6}, iterations)
	require.True(t, strings.HasPrefix(results.String(), "[{\"operation\": \"encrypt\""))
}

func TestMeasureOverhead(t *testing.T) {
	spec := keyset.Spec{KeyLength: 192, CipherSteps: 3}
	results, err := MeasureOverhead([]keyset.Spec{spec}, []int{0, 16})
	require.NoError(t, err)
	require.Equal(t, 6, results.Len())

	hdr := float64(spec.HeaderLength())
	// stream, padding, stream: one padding block over 0 and 16 bytes
	require.Equal(t, hdr+16, results.rows[0].value)
	require.Equal(t, hdr+16+16, results.rows[1].value)
	require.Equal(t, hdr+16, results.rows[3].value)
	for _, r := range results.rows {
		require.Equal(t, 1, r.nRepeat)
		require.Zero(t, r.iteration)
	}
}

func TestMonitor(t *testing.T) {
	m := newMonitor()
	x := 0
	spent, err := m.measure(func() error {
		for i := 0; i < 1000000; i++ {
			x += i
		}
		return nil
	})
	require.NoError(t, err)
	require.NotZero(t, x)
	require.True(t, spent.user >= 0)
	require.True(t, spent.system >= 0)
}

func TestMonitorDeltas(t *testing.T) {
	samples := []cpuTime{{user: 10, system: 2}, {user: 13.5, system: 2.5}}
	m := &Monitor{read: func() (cpuTime, error) {
		c := samples[0]
		samples = samples[1:]
		return c, nil
	}}
	failure := errors.New("operation failed")
	spent, err := m.measure(func() error { return failure })
	require.Equal(t, failure, err)
	require.Equal(t, cpuTime{user: 3.5, system: 0.5}, spent)
	require.Equal(t, 4.0, spent.total())
}
