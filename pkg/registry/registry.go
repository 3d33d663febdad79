// Package registry tracks the participants the coordinator fans out to.
//
// Liveness is advisory: it is recorded for operators and never removes a
// participant from the fan-out list.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/absmach/federator/pkg/errors"
)

var (
	ErrMissingID      = errors.New("missing participant id")
	ErrInvalidAddress = errors.New("invalid participant address")
)

type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusResponded Status = "responded"
	StatusTimedOut  Status = "timed-out"
	StatusFailed    Status = "failed"
)

type Participant struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Status    Status    `json:"status"`
	LastSeen  time.Time `json:"last_seen,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Registry keeps participants in insertion order. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Participant
}

func New(participants ...Participant) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Participant)}
	for _, p := range participants {
		if err := r.Join(context.Background(), p); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// List returns a snapshot in stable insertion order.
func (r *Registry) List(_ context.Context) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}

	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

func (r *Registry) Get(_ context.Context, id string) (Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return Participant{}, fmt.Errorf("participant %q: %w", id, pkgerrors.ErrNotFound)
	}

	return *p, nil
}

func (r *Registry) Join(_ context.Context, p Participant) error {
	if err := validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return fmt.Errorf("participant %q: %w", p.ID, pkgerrors.ErrEntityExists)
	}

	p.Address = strings.TrimRight(p.Address, "/")
	if p.Status == "" {
		p.Status = StatusUnknown
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	r.byID[p.ID] = &p
	r.order = append(r.order, p.ID)

	return nil
}

func (r *Registry) Leave(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("participant %q: %w", id, pkgerrors.ErrNotFound)
	}

	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return nil
}

// Mark records the outcome of the latest interaction with a participant.
// Unknown ids are ignored.
func (r *Registry) Mark(id string, status Status, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return
	}

	p.Status = status
	p.LastError = ""
	if cause != nil {
		p.LastError = cause.Error()
	}
	if status == StatusResponded {
		p.LastSeen = time.Now().UTC()
	}
}

// ParseList parses "id=address" pairs separated by commas.
func ParseList(s string) ([]Participant, error) {
	var out []Participant
	for entry := range strings.SplitSeq(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, addr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not id=address", ErrInvalidAddress, entry)
		}
		out = append(out, Participant{
			ID:      strings.TrimSpace(id),
			Address: strings.TrimSpace(addr),
		})
	}

	return out, nil
}

func validate(p Participant) error {
	if p.ID == "" {
		return ErrMissingID
	}

	u, err := url.Parse(p.Address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, p.Address)
	}

	return nil
}
