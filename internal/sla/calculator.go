package sla

import (
	"log/slog"
	"time"
)

// Deadlines holds the three absolute deadlines derived for a request
type Deadlines struct {
	AcceptDue   time.Time `bson:"acceptDue" json:"acceptDue"`
	ArriveDue   time.Time `bson:"arriveDue" json:"arriveDue"`
	CompleteDue time.Time `bson:"completeDue" json:"completeDue"`
}

// Calculator derives absolute deadlines from a priority and creation time
type Calculator struct {
	table *Table
}

// NewCalculator creates a deadline calculator backed by a policy table
func NewCalculator(table *Table) *Calculator {
	return &Calculator{table: table}
}

// Calculate returns the accept/arrive/complete deadlines for a request
// created at createdAt with the given priority.
//
// An unknown priority tier falls back to the medium policy so a bad or
// legacy priority value never fails request creation. The result depends
// only on priority and createdAt, never on the current clock.
func (c *Calculator) Calculate(priority Priority, createdAt time.Time) Deadlines {
	policy, ok := c.table.Lookup(priority)
	if !ok {
		slog.Warn("Unknown SLA priority tier, falling back to medium",
			"priority", string(priority))
		policy, _ = c.table.Lookup(PriorityMedium)
	}

	return Deadlines{
		AcceptDue:   createdAt.Add(policy.AcceptOffset),
		ArriveDue:   createdAt.Add(policy.ArriveOffset),
		CompleteDue: createdAt.Add(policy.CompleteOffset),
	}
}
