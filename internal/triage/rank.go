// Package triage orders the work queue so staff attention lands on the
// orders that need action first.
package triage

import (
	"sort"
	"time"
)

// Signals are the ranking inputs extracted from one order. Missing source
// fields decay to false/zero, which ranks the order lowest within its band.
type Signals struct {
	Completed       bool
	Partial         bool
	PaymentVerified bool
	CreatedAt       time.Time
}

// Less reports whether a ranks strictly before b.
//
// Precedence, first difference wins: completed orders sink below everything
// else; among active orders, partially fulfilled ones come first because the
// customer already received part of the shipment; then verified-paid before
// unverified; then newest first.
func Less(a, b Signals) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	if !a.Completed {
		if a.Partial != b.Partial {
			return a.Partial
		}
		if a.PaymentVerified != b.PaymentVerified {
			return a.PaymentVerified
		}
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Rank sorts items in place by their extracted signals. The sort is stable
// so equal orders keep their repository ordering.
func Rank[T any](items []T, signals func(T) Signals) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(signals(items[i]), signals(items[j]))
	})
}
