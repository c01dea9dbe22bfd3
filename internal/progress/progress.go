// Package progress carries stage/message progress events from long-running
// pipelines to whatever renders them.
package progress

import (
	"fmt"
	"sync"
	"time"

	units "github.com/docker/go-units"
)

// Observer receives (stage, message) events. Implementations must return
// quickly; the pipeline calls them inline.
type Observer[S any] interface {
	Report(stage S, message string)
}

// Func adapts a function to Observer.
type Func[S any] func(stage S, message string)

// Report calls f.
func (f Func[S]) Report(stage S, message string) {
	f(stage, message)
}

// Nop discards all events.
type Nop[S any] struct{}

// Report does nothing.
func (Nop[S]) Report(S, string) {}

// Safe wraps o so that a nil observer or a panicking one never reaches the
// caller.
func Safe[S any](o Observer[S]) Observer[S] {
	if o == nil {
		return Nop[S]{}
	}
	return safe[S]{o}
}

type safe[S any] struct {
	inner Observer[S]
}

func (s safe[S]) Report(stage S, message string) {
	defer func() { _ = recover() }()
	s.inner.Report(stage, message)
}

// Meter tracks transferred bytes and formats "bytes/total • rate" messages.
// It is safe for concurrent use.
type Meter struct {
	mu       sync.Mutex
	total    int64
	done     int64
	started  time.Time
	lastEmit time.Time
	interval time.Duration
	now      func() time.Time
	emit     func(message string)
}

// DefaultMeterInterval is the minimum time between two emitted messages.
const DefaultMeterInterval = 250 * time.Millisecond

// NewMeter returns a Meter that calls emit at most once per interval.
func NewMeter(interval time.Duration, emit func(message string)) *Meter {
	if interval <= 0 {
		interval = DefaultMeterInterval
	}
	return &Meter{interval: interval, now: time.Now, emit: emit, total: -1}
}

// Reset starts a new transfer of total bytes (-1 when unknown).
func (m *Meter) Reset(total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
	m.done = 0
	m.started = m.now()
	m.lastEmit = time.Time{}
}

// Add records n transferred bytes and emits a message when the interval has
// elapsed or the transfer is complete.
func (m *Meter) Add(n int) {
	m.mu.Lock()
	m.done += int64(n)
	now := m.now()
	complete := m.total > 0 && m.done >= m.total
	if !complete && now.Sub(m.lastEmit) < m.interval {
		m.mu.Unlock()
		return
	}
	m.lastEmit = now
	msg := m.messageLocked(now)
	m.mu.Unlock()

	if m.emit != nil {
		m.emit(msg)
	}
}

// Message returns the current progress text.
func (m *Meter) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messageLocked(m.now())
}

func (m *Meter) messageLocked(now time.Time) string {
	elapsed := now.Sub(m.started).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(m.done) / elapsed
	}
	return FormatTransfer(m.done, m.total, rate)
}

// FormatTransfer renders "12.5MB/40MB • 3.2MB/s". An unknown total renders
// as "?".
func FormatTransfer(done, total int64, bytesPerSecond float64) string {
	totalText := "?"
	if total >= 0 {
		totalText = units.HumanSize(float64(total))
	}
	return fmt.Sprintf("%s/%s • %s/s", units.HumanSize(float64(done)), totalText, units.HumanSize(bytesPerSecond))
}
