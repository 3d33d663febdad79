package fl

import (
	"sync"
	"time"
)

// Collector buffers the updates of the open round. It is safe for
// concurrent use.
type Collector struct {
	mu      sync.Mutex
	open    bool
	roundID uint64
	seen    map[string]struct{}
	updates []Update
}

func NewCollector() *Collector {
	return &Collector{
		seen: make(map[string]struct{}),
	}
}

// Open starts accepting updates for roundID and drops anything buffered for
// an earlier round.
func (c *Collector) Open(roundID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = true
	c.roundID = roundID
	c.seen = make(map[string]struct{})
	c.updates = nil
}

// Submit buffers u. The first update of a participant in a round wins.
func (c *Collector) Submit(u Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return &RejectedUpdateError{
			ParticipantID: u.ParticipantID,
			RoundID:       u.RoundID,
			OpenRoundID:   c.roundID,
			Reason:        ReasonRoundClosed,
			Err:           ErrRoundClosed,
		}
	}
	if u.RoundID != c.roundID {
		return &RejectedUpdateError{
			ParticipantID: u.ParticipantID,
			RoundID:       u.RoundID,
			OpenRoundID:   c.roundID,
			Reason:        ReasonStaleRound,
			Err:           ErrStaleRound,
		}
	}
	if _, ok := c.seen[u.ParticipantID]; ok {
		return &RejectedUpdateError{
			ParticipantID: u.ParticipantID,
			RoundID:       u.RoundID,
			OpenRoundID:   c.roundID,
			Reason:        ReasonDuplicate,
			Err:           ErrDuplicateUpdate,
		}
	}

	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = time.Now()
	}
	u.Tensors = u.Tensors.Clone()
	c.seen[u.ParticipantID] = struct{}{}
	c.updates = append(c.updates, u)

	return nil
}

// Drain returns the buffered updates in submission order and stops
// accepting until the next Open.
func (c *Collector) Drain() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.updates
	c.updates = nil
	c.open = false

	return out
}

func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.updates)
}

// CountFrom reports how many buffered updates come from the given ids.
func (c *Collector) CountFrom(ids map[string]struct{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id := range c.seen {
		if _, ok := ids[id]; ok {
			n++
		}
	}

	return n
}

// RoundID reports the round being collected and whether it is open.
func (c *Collector) RoundID() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.roundID, c.open
}
