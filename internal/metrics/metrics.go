package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Latency accumulates observed durations so a mean can be reported.
type Latency struct {
	count Counter
	total int64
	max   int64
}

func (l *Latency) Observe(d time.Duration) {
	l.count.Inc()
	atomic.AddInt64(&l.total, int64(d))
	for {
		cur := atomic.LoadInt64(&l.max)
		if int64(d) <= cur || atomic.CompareAndSwapInt64(&l.max, cur, int64(d)) {
			return
		}
	}
}

func (l *Latency) Count() uint64 {
	return l.count.Load()
}

func (l *Latency) Mean() time.Duration {
	n := l.count.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&l.total) / int64(n))
}

func (l *Latency) Max() time.Duration {
	return time.Duration(atomic.LoadInt64(&l.max))
}
