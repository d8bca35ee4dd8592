package simul

import (
	"syscall"

	"github.com/cockroachdb/errors"
)

// cpuTime is CPU time in milliseconds, split by user and system.
type cpuTime struct {
	user   float64
	system float64
}

func (c cpuTime) total() float64 {
	return c.user + c.system
}

func (c cpuTime) sub(o cpuTime) cpuTime {
	return cpuTime{user: c.user - o.user, system: c.system - o.system}
}

// Monitor attributes process CPU time to individual operations.
type Monitor struct {
	read func() (cpuTime, error)
}

func newMonitor() *Monitor {
	return &Monitor{read: readCPUTime}
}

// measure runs op and returns the CPU time it used. An error of op is
// returned with the measurement.
func (m *Monitor) measure(op func() error) (cpuTime, error) {
	start, err := m.read()
	if err != nil {
		return cpuTime{}, err
	}
	opErr := op()
	end, err := m.read()
	if err != nil {
		return cpuTime{}, err
	}
	return end.sub(start), opErr
}

func readCPUTime() (cpuTime, error) {
	rusage := &syscall.Rusage{}
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, rusage); err != nil {
		return cpuTime{}, errors.Wrap(err, "getrusage")
	}
	return cpuTime{
		user:   toMillis(int64(rusage.Utime.Sec), int64(rusage.Utime.Usec)),
		system: toMillis(int64(rusage.Stime.Sec), int64(rusage.Stime.Usec)),
	}, nil
}

func toMillis(sec int64, usec int64) float64 {
	return float64(sec)*1000.0 + float64(usec)/1000.0
}
