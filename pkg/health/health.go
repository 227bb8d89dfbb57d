package health

import (
	"context"
	"time"
)

// NewChecker creates a checker with no checks registered
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]CheckFunc),
		now:    time.Now,
	}
}

// Register adds a check, replacing any check with the same name
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Len returns the number of registered checks
func (c *Checker) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.checks)
}

// Run performs every registered check. With nothing registered the response
// is healthy.
func (c *Checker) Run(ctx context.Context) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: c.now(),
		Checks:    make(map[string]Check, len(c.checks)),
	}

	for name, checkFunc := range c.checks {
		start := c.now()
		check := checkFunc(ctx)
		check.Duration = c.now().Sub(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}
		response.Checks[name] = check
		response.Status = worse(response.Status, check.Status)
	}

	return response
}

func worse(a, b Status) Status {
	if a == StatusUnhealthy || b == StatusUnhealthy {
		return StatusUnhealthy
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
