package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-analytics/pkg/wal"
)

func TestNewChecker(t *testing.T) {
	c := NewChecker()

	if c == nil {
		t.Fatal("NewChecker returned nil")
	}
	if c.Len() != 0 {
		t.Errorf("expected no checks, got %d", c.Len())
	}
}

func TestRegisterAndRun(t *testing.T) {
	c := NewChecker()

	called := false
	c.Register("sink", func(context.Context) Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	resp := c.Run(context.Background())
	if !called {
		t.Error("registered check was not called")
	}
	check, exists := resp.Checks["sink"]
	if !exists {
		t.Fatal("check result not in response")
	}
	if check.Name != "sink" {
		t.Errorf("expected name to default to 'sink', got %q", check.Name)
	}
}

func TestRegisterReplaces(t *testing.T) {
	c := NewChecker()
	c.Register("sink", func(context.Context) Check { return Check{Status: StatusUnhealthy} })
	c.Register("sink", func(context.Context) Check { return Check{Status: StatusHealthy} })

	if c.Len() != 1 {
		t.Fatalf("expected 1 check, got %d", c.Len())
	}
	if resp := c.Run(context.Background()); resp.Status != StatusHealthy {
		t.Errorf("expected replacement check to run, got %s", resp.Status)
	}
}

func TestStatusAggregation(t *testing.T) {
	tests := []struct {
		name           string
		checkStatuses  []Status
		expectedStatus Status
	}{
		{
			name:           "all healthy",
			checkStatuses:  []Status{StatusHealthy, StatusHealthy, StatusHealthy},
			expectedStatus: StatusHealthy,
		},
		{
			name:           "one degraded",
			checkStatuses:  []Status{StatusHealthy, StatusDegraded, StatusHealthy},
			expectedStatus: StatusDegraded,
		},
		{
			name:           "one unhealthy",
			checkStatuses:  []Status{StatusHealthy, StatusUnhealthy, StatusHealthy},
			expectedStatus: StatusUnhealthy,
		},
		{
			name:           "degraded and unhealthy",
			checkStatuses:  []Status{StatusDegraded, StatusUnhealthy, StatusHealthy},
			expectedStatus: StatusUnhealthy,
		},
		{
			name:           "no checks",
			checkStatuses:  []Status{},
			expectedStatus: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for i, status := range tt.checkStatuses {
				c.Register(fmt.Sprintf("check-%d", i), func(context.Context) Check {
					return Check{Status: status}
				})
			}

			resp := c.Run(context.Background())
			if resp.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, resp.Status)
			}
			if len(resp.Checks) != len(tt.checkStatuses) {
				t.Errorf("expected %d checks, got %d", len(tt.checkStatuses), len(resp.Checks))
			}
		})
	}
}

func TestRunStampsTiming(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	c := NewChecker()
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	c.Register("slow", func(context.Context) Check { return Check{Status: StatusHealthy} })

	resp := c.Run(context.Background())
	check := resp.Checks["slow"]

	if !resp.Timestamp.Equal(base.Add(time.Millisecond)) {
		t.Errorf("unexpected response timestamp %v", resp.Timestamp)
	}
	if !check.LastChecked.Equal(base.Add(2 * time.Millisecond)) {
		t.Errorf("unexpected LastChecked %v", check.LastChecked)
	}
	if check.Duration != time.Millisecond {
		t.Errorf("expected 1ms duration, got %v", check.Duration)
	}
}

func TestPingCheck(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus Status
		expectedMsg    string
	}{
		{
			name:           "connected",
			pingErr:        nil,
			expectedStatus: StatusHealthy,
			expectedMsg:    "Connected",
		},
		{
			name:           "connection error",
			pingErr:        errors.New("connection refused"),
			expectedStatus: StatusUnhealthy,
			expectedMsg:    "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFunc := PingCheck(func(context.Context) error {
				return tt.pingErr
			})

			check := checkFunc(context.Background())

			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if check.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, check.Message)
			}
		})
	}
}

func TestJournalCheck(t *testing.T) {
	tests := []struct {
		name           string
		verifyErr      error
		tornBytes      uint64
		expectedStatus Status
		expectedMsg    string
	}{
		{
			name:           "intact",
			expectedStatus: StatusHealthy,
			expectedMsg:    "Journal intact",
		},
		{
			name:           "torn tail",
			verifyErr:      fmt.Errorf("read entry: %w", io.ErrUnexpectedEOF),
			expectedStatus: StatusDegraded,
			expectedMsg:    "Truncated final record",
		},
		{
			name:           "torn tail cut on open",
			tornBytes:      12,
			expectedStatus: StatusDegraded,
			expectedMsg:    "Truncated final record discarded",
		},
		{
			name:           "checksum mismatch",
			verifyErr:      wal.ErrChecksumMismatch,
			expectedStatus: StatusUnhealthy,
			expectedMsg:    wal.ErrChecksumMismatch.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFunc := JournalCheck(
				func(context.Context) (int, error) { return 3, tt.verifyErr },
				func() wal.Stats { return wal.Stats{TotalWrites: 3, CompressionRatio: 0.5, TornBytes: tt.tornBytes} },
			)

			check := checkFunc(context.Background())

			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if check.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, check.Message)
			}
			if check.Details["records"] != 3 {
				t.Errorf("expected 3 records in details, got %v", check.Details["records"])
			}
			if check.Details["writes"] != uint64(3) {
				t.Errorf("expected 3 writes in details, got %v", check.Details["writes"])
			}
			if _, ok := check.Details["torn_bytes"]; ok != (tt.tornBytes > 0) {
				t.Errorf("unexpected torn_bytes detail: %v", check.Details["torn_bytes"])
			}
		})
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name           string
		alloc          uint64
		sys            uint64
		expectedStatus Status
		expectedMsg    string
	}{
		{
			name:           "normal usage",
			alloc:          50,
			sys:            100,
			expectedStatus: StatusHealthy,
			expectedMsg:    "Memory usage normal",
		},
		{
			name:           "high usage (90%)",
			alloc:          90,
			sys:            100,
			expectedStatus: StatusHealthy,
			expectedMsg:    "Memory usage normal",
		},
		{
			name:           "high usage (91%)",
			alloc:          91,
			sys:            100,
			expectedStatus: StatusDegraded,
			expectedMsg:    "High memory usage",
		},
		{
			name:           "no system memory reported",
			alloc:          10,
			sys:            0,
			expectedStatus: StatusHealthy,
			expectedMsg:    "Memory usage normal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFunc := MemoryCheck(func() (uint64, uint64) {
				return tt.alloc, tt.sys
			})

			check := checkFunc(context.Background())

			if check.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, check.Status)
			}
			if check.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, check.Message)
			}
		})
	}
}

func TestConcurrentRegistration(t *testing.T) {
	c := NewChecker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.Register(string(rune('a'+id)), func(context.Context) Check {
				return Check{Status: StatusHealthy}
			})
			c.Run(context.Background())
		}(i)
	}
	wg.Wait()

	resp := c.Run(context.Background())
	if len(resp.Checks) != 10 {
		t.Errorf("expected 10 checks, got %d", len(resp.Checks))
	}
}
