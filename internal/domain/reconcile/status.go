// Package reconcile defines the reconciliation lifecycle of an imported
// statement transaction.
//
// A transaction starts as pending. Confirming a match moves it to matched,
// flagging moves it to discrepancy, and unmatch reverts either back to
// pending:
//
//	pending --confirm--> matched
//	pending --flag-----> discrepancy
//	matched --unmatch--> pending
//	discrepancy --unmatch--> pending
//
// Every other (status, event) pair is rejected with ErrInvalidTransition.
package reconcile

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event is not allowed from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the reconciliation state of a transaction.
type Status string

const (
	StatusPending     Status = "pending"
	StatusMatched     Status = "matched"
	StatusDiscrepancy Status = "discrepancy"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusMatched, StatusDiscrepancy}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusMatched, StatusDiscrepancy:
		return true
	}
	return false
}

// ParseStatus converts user input (query strings, DB rows) into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// Event is something a user or rule does to a transaction.
type Event string

const (
	EventConfirm Event = "confirm"
	EventFlag    Event = "flag"
	EventUnmatch Event = "unmatch"
)

type edge struct {
	from  Status
	event Event
}

var transitions = map[edge]Status{
	{StatusPending, EventConfirm}:     StatusMatched,
	{StatusPending, EventFlag}:        StatusDiscrepancy,
	{StatusMatched, EventUnmatch}:     StatusPending,
	{StatusDiscrepancy, EventUnmatch}: StatusPending,
}

// Transition returns the status reached by applying event to from.
func Transition(from Status, event Event) (Status, error) {
	to, ok := transitions[edge{from, event}]
	if !ok {
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
	}
	return to, nil
}

// AllowedFrom lists the statuses from which event is legal, in Statuses order.
// Storage uses it to build compare-and-set predicates.
func AllowedFrom(event Event) []Status {
	var from []Status
	for _, s := range Statuses {
		if _, ok := transitions[edge{s, event}]; ok {
			from = append(from, s)
		}
	}
	return from
}
