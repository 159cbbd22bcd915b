// Package health exposes liveness and readiness probes for the
// /q/health endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Status of a component or of the whole response
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Check is one probe result
type Check struct {
	Name   string         `json:"name"`
	Status Status         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
}

// HealthResponse aggregates probe results; Status is DOWN if any
// check is DOWN.
type HealthResponse struct {
	Status Status  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

// CheckFunc produces a Check on demand
type CheckFunc func() Check

// Checker holds the registered liveness and readiness probes
type Checker struct {
	mu        sync.RWMutex
	liveness  []CheckFunc
	readiness []CheckFunc
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{}
}

// AddLivenessCheck registers a probe for /q/health/live
func (c *Checker) AddLivenessCheck(check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = append(c.liveness, check)
}

// AddReadinessCheck registers a probe for /q/health/ready
func (c *Checker) AddReadinessCheck(check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness = append(c.readiness, check)
}

func (c *Checker) evaluate(checks []CheckFunc) HealthResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := HealthResponse{
		Status: StatusUp,
		Checks: make([]Check, 0, len(checks)),
	}
	for _, fn := range checks {
		check := fn()
		response.Checks = append(response.Checks, check)
		if check.Status == StatusDown {
			response.Status = StatusDown
		}
	}
	return response
}

// GetLiveness evaluates the liveness probes
func (c *Checker) GetLiveness() HealthResponse {
	return c.evaluate(c.liveness)
}

// GetReadiness evaluates the readiness probes
func (c *Checker) GetReadiness() HealthResponse {
	return c.evaluate(c.readiness)
}

// GetHealth evaluates liveness and readiness together
func (c *Checker) GetHealth() HealthResponse {
	c.mu.RLock()
	all := make([]CheckFunc, 0, len(c.liveness)+len(c.readiness))
	all = append(all, c.liveness...)
	all = append(all, c.readiness...)
	c.mu.RUnlock()

	return c.evaluate(all)
}

// HandleHealth serves /q/health
func (c *Checker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	c.write(w, c.GetHealth())
}

// HandleLive serves /q/health/live. With no probes registered the
// ability to answer at all is the liveness signal.
func (c *Checker) HandleLive(w http.ResponseWriter, r *http.Request) {
	response := c.GetLiveness()
	if len(response.Checks) == 0 {
		response.Status = StatusUp
	}
	c.write(w, response)
}

// HandleReady serves /q/health/ready
func (c *Checker) HandleReady(w http.ResponseWriter, r *http.Request) {
	response := c.GetReadiness()
	if len(response.Checks) == 0 {
		response.Status = StatusUp
	}
	c.write(w, response)
}

func (c *Checker) write(w http.ResponseWriter, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	if response.Status == StatusDown {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}

// pingCheck wraps a ping function as a named probe
func pingCheck(name string, ping func() error) CheckFunc {
	return func() Check {
		if err := ping(); err != nil {
			return Check{
				Name:   name,
				Status: StatusDown,
				Data:   map[string]any{"error": err.Error()},
			}
		}
		return Check{Name: name, Status: StatusUp}
	}
}

// MongoDBCheck probes the request and notification store
func MongoDBCheck(ping func() error) CheckFunc {
	return pingCheck("MongoDB", ping)
}

// RedisCheck probes the leader-election backend. Only registered when
// leader election is enabled; a standalone instance has no Redis
// dependency.
func RedisCheck(ping func() error) CheckFunc {
	return pingCheck("Redis", ping)
}

// SchedulerCheck probes the scan scheduler. A follower instance is
// still healthy; the leader flag is informational.
func SchedulerCheck(isRunning func() bool, isLeader func() bool) CheckFunc {
	return func() Check {
		if !isRunning() {
			return Check{
				Name:   "ScanScheduler",
				Status: StatusDown,
				Data:   map[string]any{"running": false},
			}
		}
		return Check{
			Name:   "ScanScheduler",
			Status: StatusUp,
			Data: map[string]any{
				"running": true,
				"leader":  isLeader(),
			},
		}
	}
}
