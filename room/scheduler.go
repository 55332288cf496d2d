package room

import (
	"sync"
	"time"
)

// Scheduler drives a room's ticks. Start runs tick periodically until Stop;
// a second Start, or a Start after Stop, is refused. Stop is idempotent and
// may be called from inside tick.
type Scheduler interface {
	Start(tick func()) bool
	Stop()
}

// NewScheduler builds one Scheduler per room.
type NewScheduler func() Scheduler

type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}
}

func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	return &TickerScheduler{
		interval: interval,
		quit:     make(chan struct{}),
	}
}

// Ticker returns a factory of wall-clock schedulers.
func Ticker(interval time.Duration) NewScheduler {
	return func() Scheduler {
		return NewTickerScheduler(interval)
	}
}

func (s *TickerScheduler) Start(tick func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return false
	}
	s.started = true
	go s.run(tick)
	return true
}

func (s *TickerScheduler) run(tick func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			// quit may have closed while we waited on the ticker.
			select {
			case <-s.quit:
				return
			default:
			}
			tick()
		}
	}
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.quit)
}

// ManualScheduler only ticks when told to.
type ManualScheduler struct {
	mu      sync.Mutex
	tick    func()
	started bool
	stopped bool
	starts  int
}

func (s *ManualScheduler) Start(tick func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.started || s.stopped {
		return false
	}
	s.started = true
	s.tick = tick
	return true
}

func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// TickNow runs one tick if the scheduler is running.
func (s *ManualScheduler) TickNow() bool {
	s.mu.Lock()
	tick := s.tick
	running := s.started && !s.stopped
	s.mu.Unlock()

	if !running {
		return false
	}
	tick()
	return true
}

func (s *ManualScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

// StartCalls counts Start attempts, accepted or not.
func (s *ManualScheduler) StartCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// ManualSchedulers hands out ManualSchedulers and remembers them in order.
type ManualSchedulers struct {
	mu  sync.Mutex
	all []*ManualScheduler
}

func (f *ManualSchedulers) New() Scheduler {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &ManualScheduler{}
	f.all = append(f.all, s)
	return s
}

func (f *ManualSchedulers) All() []*ManualScheduler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ManualScheduler(nil), f.all...)
}
