package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler on virtual time. Nothing runs until
// the owner calls RunUntilIdle, Advance or Release.
type Manual struct {
	now     time.Duration
	queue   []func()
	timers  []*manualTimer
	seq     int
	hold    bool
	pending []func() func()
}

// NewManual returns a Manual at virtual time zero
func NewManual() *Manual {
	return &Manual{}
}

// Post queues fn
func (m *Manual) Post(fn func()) {
	m.queue = append(m.queue, fn)
}

// AfterFunc schedules fn at now+d on the virtual clock
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{at: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Go runs task inline and queues its continuation. While Hold is on the
// task is parked until Release.
func (m *Manual) Go(task func() func()) {
	if m.hold {
		m.pending = append(m.pending, task)
		return
	}
	if next := task(); next != nil {
		m.Post(next)
	}
}

// Hold parks subsequent Go tasks instead of running them
func (m *Manual) Hold(on bool) {
	m.hold = on
}

// Pending is the number of parked tasks
func (m *Manual) Pending() int {
	return len(m.pending)
}

// Release runs parked task i, then drains the queue. Releasing out of
// order simulates responses that arrive out of order.
func (m *Manual) Release(i int) {
	task := m.pending[i]
	m.pending = append(m.pending[:i], m.pending[i+1:]...)
	if next := task(); next != nil {
		m.Post(next)
	}
	m.RunUntilIdle()
}

// Now returns elapsed virtual time
func (m *Manual) Now() time.Duration {
	return m.now
}

// RunUntilIdle drains the queue, including work queued while draining
func (m *Manual) RunUntilIdle() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in order
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	m.RunUntilIdle()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		t.done = true
		t.fn()
		m.RunUntilIdle()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].at == m.timers[j].at {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at < m.timers[j].at
	})
	if len(m.timers) == 0 || m.timers[0].at > target {
		return nil
	}
	return m.timers[0]
}

type manualTimer struct {
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}
