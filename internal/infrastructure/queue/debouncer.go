package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultDelay       = 800 * time.Millisecond
	defaultTaskTimeout = 10 * time.Second
)

// Task is the unit of work a Debouncer runs.
type Task func(ctx context.Context) error

type pending struct {
	task  Task
	timer *time.Timer
	gen   uint64
	lock  *keyLock
}

// keyLock serializes the tasks of one key. refs counts tasks that are taken
// but not finished; the entry is dropped at zero.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Debouncer delays work per key until no new work for that key has arrived
// for the configured delay. Only the latest task for a key runs, and tasks for
// the same key never overlap.
type Debouncer struct {
	delay   time.Duration
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pending
	locks   map[string]*keyLock
	gen     uint64
	closed  bool
	running sync.WaitGroup
}

// NewDebouncer creates a Debouncer. If delay <= 0, defaultDelay is used.
func NewDebouncer(delay time.Duration, log zerolog.Logger) *Debouncer {
	if delay <= 0 {
		delay = defaultDelay
	}
	return &Debouncer{
		delay:   delay,
		timeout: defaultTaskTimeout,
		log:     log,
		pending: make(map[string]*pending),
		locks:   make(map[string]*keyLock),
	}
}

// Schedule replaces any pending task for key and restarts its timer. After
// Close the task runs immediately.
func (d *Debouncer) Schedule(key string, task func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.running.Add(1)
		kl := d.acquire(key)
		d.mu.Unlock()
		d.run(key, task, kl)
		return
	}

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending[key] = &pending{
		task:  task,
		gen:   gen,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, gen) }),
	}
	d.mu.Unlock()
}

// Flush runs the pending task for key now and returns once it has finished.
// With nothing pending it waits for a task for key that is already running.
// It reports whether there was a task to run or wait for.
func (d *Debouncer) Flush(key string) bool {
	if p := d.take(key); p != nil {
		d.run(key, p.task, p.lock)
		return true
	}

	d.mu.Lock()
	kl, ok := d.locks[key]
	if ok {
		kl.refs++
	}
	d.mu.Unlock()
	if !ok {
		return false
	}
	// Holding the lock once means the running task has returned.
	kl.mu.Lock()
	kl.mu.Unlock()
	d.release(key, kl)
	return true
}

// Cancel drops the pending task for key without running it.
func (d *Debouncer) Cancel(key string) bool {
	p := d.take(key)
	if p == nil {
		return false
	}
	d.release(key, p.lock)
	d.running.Done()
	return true
}

// Pending returns the number of keys waiting to run.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close runs every pending task and waits for in-flight ones to finish.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.mu.Unlock()

	for _, k := range keys {
		d.Flush(k)
	}
	d.running.Wait()
}

// take removes the pending entry for key and stops its timer. The caller
// owns one count on d.running and one reference on the entry's lock.
func (d *Debouncer) take(key string) *pending {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[key]
	if !ok {
		return nil
	}
	p.timer.Stop()
	delete(d.pending, key)
	d.running.Add(1)
	p.lock = d.acquire(key)
	return p
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.running.Add(1)
	kl := d.acquire(key)
	d.mu.Unlock()

	d.run(key, p.task, kl)
}

// acquire returns the lock for key with one more reference. d.mu must be held.
func (d *Debouncer) acquire(key string) *keyLock {
	kl, ok := d.locks[key]
	if !ok {
		kl = &keyLock{}
		d.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (d *Debouncer) release(key string, kl *keyLock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(d.locks, key)
	}
}

// run executes task under the key's lock, then drops the lock reference and
// one count on d.running.
func (d *Debouncer) run(key string, task Task, kl *keyLock) {
	defer d.running.Done()
	defer d.release(key, kl)

	kl.mu.Lock()
	defer kl.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := task(ctx); err != nil {
		d.log.Error().Err(err).Str("key", key).Msg("debounced task failed")
	}
}
