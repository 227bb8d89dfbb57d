package health

import (
	"context"
	"errors"
	"io"

	"github.com/dd0wney/cluso-analytics/pkg/wal"
)

// PingCheck reports a store unhealthy when ping fails
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy, Message: "Connected"}
	}
}

// JournalCheck reads every journal record back. A checksum mismatch is
// unhealthy. A torn final record, left by a crash mid-append, is degraded
// whether it is found on read or was cut off when the journal was opened.
func JournalCheck(verify func(ctx context.Context) (int, error), stats func() wal.Stats) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Details: make(map[string]any)}

		records, err := verify(ctx)
		check.Details["records"] = records
		var torn uint64
		if stats != nil {
			s := stats()
			check.Details["writes"] = s.TotalWrites
			check.Details["compression_ratio"] = s.CompressionRatio
			torn = s.TornBytes
			if torn > 0 {
				check.Details["torn_bytes"] = torn
			}
		}

		switch {
		case err == nil && torn > 0:
			check.Status = StatusDegraded
			check.Message = "Truncated final record discarded"
		case err == nil:
			check.Status = StatusHealthy
			check.Message = "Journal intact"
		case errors.Is(err, io.ErrUnexpectedEOF):
			check.Status = StatusDegraded
			check.Message = "Truncated final record"
		default:
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		}
		return check
	}
}

// MemoryCheck reports degraded when the heap holds more than 90% of the
// memory obtained from the OS
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(context.Context) Check {
		check := Check{Details: make(map[string]any)}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys)*100 > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}
