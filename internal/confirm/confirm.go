package confirm

import (
	"sync"
	"time"
)

// DefaultTTL is how long a confirmation stays armed.
const DefaultTTL = 5 * time.Second

// Confirmer is a reusable two-press confirmation: the first press arms it,
// a second press while armed commits. The armed state expires after the TTL
// and the next press starts over.
type Confirmer struct {
	mu    sync.Mutex
	ttl   time.Duration
	armed bool
	timer *time.Timer
}

func New(ttl time.Duration) *Confirmer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Confirmer{ttl: ttl}
}

// Press registers one press and reports whether the action is confirmed.
func (c *Confirmer) Press() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		c.disarmLocked()
		return true
	}
	c.armed = true
	c.timer = time.AfterFunc(c.ttl, c.expire)
	return false
}

// Armed reports whether a confirmation is pending.
func (c *Confirmer) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Reset disarms without committing.
func (c *Confirmer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

func (c *Confirmer) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = false
	c.timer = nil
}

func (c *Confirmer) disarmLocked() {
	c.armed = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
