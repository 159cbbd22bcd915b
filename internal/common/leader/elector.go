// Package leader provides leader election for the scan scheduler
package leader

// Elector decides whether this instance drives the scan cadence
type Elector interface {
	// Start begins the election process
	Start() error

	// Stop ends the election process, releasing leadership if held
	Stop()

	// IsPrimary returns true if this instance currently leads
	IsPrimary() bool
}

// StaticElector is the single-instance elector: always primary.
// Used when leader election is disabled in configuration.
type StaticElector struct{}

// NewStaticElector creates an elector that always leads
func NewStaticElector() *StaticElector {
	return &StaticElector{}
}

// Start is a no-op
func (e *StaticElector) Start() error { return nil }

// Stop is a no-op
func (e *StaticElector) Stop() {}

// IsPrimary always returns true
func (e *StaticElector) IsPrimary() bool { return true }
