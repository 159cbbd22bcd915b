// Package sla provides the SLA policy table and deadline calculator
package sla

import "time"

// Priority is the priority tier of a maintenance request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Policy holds the deadline offsets for one priority tier.
// Offsets are measured from the request's creation time.
type Policy struct {
	AcceptOffset   time.Duration
	ArriveOffset   time.Duration
	CompleteOffset time.Duration
}

// Table is an immutable priority-to-policy lookup table.
// It is built once at startup and never written to afterwards.
type Table struct {
	policies map[Priority]Policy
}

// DefaultPolicies returns the standard SLA tiers
func DefaultPolicies() map[Priority]Policy {
	return map[Priority]Policy{
		PriorityHigh: {
			AcceptOffset:   30 * time.Minute,
			ArriveOffset:   120 * time.Minute,
			CompleteOffset: 480 * time.Minute,
		},
		PriorityMedium: {
			AcceptOffset:   60 * time.Minute,
			ArriveOffset:   240 * time.Minute,
			CompleteOffset: 1440 * time.Minute,
		},
		PriorityLow: {
			AcceptOffset:   120 * time.Minute,
			ArriveOffset:   480 * time.Minute,
			CompleteOffset: 2880 * time.Minute,
		},
	}
}

// NewTable creates a policy table from the given tiers.
// The input map is copied so later mutation by the caller has no effect.
func NewTable(policies map[Priority]Policy) *Table {
	copied := make(map[Priority]Policy, len(policies))
	for tier, p := range policies {
		copied[tier] = p
	}
	return &Table{policies: copied}
}

// NewDefaultTable creates a policy table with the standard tiers
func NewDefaultTable() *Table {
	return NewTable(DefaultPolicies())
}

// Lookup returns the policy for a priority tier.
// The second return value is false when the tier is unknown.
func (t *Table) Lookup(priority Priority) (Policy, bool) {
	p, ok := t.policies[priority]
	return p, ok
}

// Tiers returns the tiers present in the table
func (t *Table) Tiers() []Priority {
	tiers := make([]Priority, 0, len(t.policies))
	for tier := range t.policies {
		tiers = append(tiers, tier)
	}
	return tiers
}
