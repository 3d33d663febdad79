package fl

import (
	"fmt"
	"time"
)

// Tensor is a flat vector of model values.
type Tensor []float64

// Tensors is an ordered collection of tensors making up a model.
type Tensors []Tensor

// Shape lists the length of every tensor, in order.
type Shape []int

func (ts Tensors) Shape() Shape {
	shape := make(Shape, len(ts))
	for i, t := range ts {
		shape[i] = len(t)
	}

	return shape
}

// Validate reports whether ts can take part in a round. It needs at least
// one tensor, no empty tensor and only finite values.
func (ts Tensors) Validate() error {
	if len(ts) == 0 {
		return ErrEmptyTensors
	}
	for _, t := range ts {
		if len(t) == 0 {
			return ErrEmptyTensors
		}
	}
	if !ts.finite() {
		return ErrNonFinite
	}

	return nil
}

// Clone returns a deep copy so callers never share backing arrays.
func (ts Tensors) Clone() Tensors {
	if ts == nil {
		return nil
	}
	out := make(Tensors, len(ts))
	for i, t := range ts {
		out[i] = append(Tensor(nil), t...)
	}

	return out
}

func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}

	return true
}

func (s Shape) Empty() bool {
	return len(s) == 0
}

// Valid reports whether s describes at least one non-empty tensor.
func (s Shape) Valid() bool {
	if len(s) == 0 {
		return false
	}
	for _, n := range s {
		if n <= 0 {
			return false
		}
	}

	return true
}

func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}

// Parameters is a versioned snapshot of the global model.
type Parameters struct {
	Version   uint64    `json:"version"`
	Tensors   Tensors   `json:"tensors"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Parameters) Clone() Parameters {
	p.Tensors = p.Tensors.Clone()

	return p
}

// Update is one participant's contribution to a round.
type Update struct {
	ParticipantID string    `json:"participant_id"`
	RoundID       uint64    `json:"round_id"`
	Tensors       Tensors   `json:"tensors"`
	NumSamples    uint64    `json:"num_samples,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

type RoundState uint8

const (
	Idle RoundState = iota
	Triggered
	Collecting
	Aggregating
	Broadcasting
)

func (s RoundState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Triggered:
		return "triggered"
	case Collecting:
		return "collecting"
	case Aggregating:
		return "aggregating"
	case Broadcasting:
		return "broadcasting"
	default:
		return "unknown"
	}
}

func (s RoundState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *RoundState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "triggered":
		*s = Triggered
	case "collecting":
		*s = Collecting
	case "aggregating":
		*s = Aggregating
	case "broadcasting":
		*s = Broadcasting
	default:
		return fmt.Errorf("unknown round state %q", text)
	}

	return nil
}

// Round is a snapshot of the coordinator's current round.
type Round struct {
	ID        uint64     `json:"round_id"`
	State     RoundState `json:"state"`
	StartedAt time.Time  `json:"started_at,omitzero"`
	Deadline  time.Time  `json:"deadline,omitzero"`
	Expected  int        `json:"expected"`
	Received  int        `json:"received"`
	Version   uint64     `json:"version"`
}

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome reports how a round was closed.
type Outcome struct {
	Status   OutcomeStatus `json:"status"`
	RoundID  uint64        `json:"round_id"`
	Version  uint64        `json:"version"`
	Included []string      `json:"included,omitempty"`
	Excluded []string      `json:"excluded,omitempty"`
	Pushed   int           `json:"pushed"`
	Failed   []string      `json:"failed,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}
