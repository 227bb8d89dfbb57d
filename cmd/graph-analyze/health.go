package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-analytics/pkg/health"
	"github.com/dd0wney/cluso-analytics/pkg/wal"
)

var errUnhealthy = errors.New("unhealthy")

type pinger interface {
	Ping(ctx context.Context) error
}

type verifier interface {
	Verify(ctx context.Context) (int, error)
	Stats() wal.Stats
}

// checker registers a check for the vault and for the sink when they can be
// checked. An in-memory sink has nothing to check.
func (a *app) checker() *health.Checker {
	hc := health.NewChecker()
	hc.Register("memory", health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.HeapAlloc, m.Sys
	}))
	if a.vault != nil {
		hc.Register("vault", health.PingCheck(a.vault.Ping))
	}
	switch s := a.sink.(type) {
	case verifier:
		hc.Register("sink", health.JournalCheck(s.Verify, s.Stats))
	case pinger:
		if any(s) != any(a.vault) {
			hc.Register("sink", health.PingCheck(s.Ping))
		}
	}
	return hc
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the vault and result sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := a.checker().Run(cmd.Context())
			if a.jsonOut {
				if err := a.writeJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderHealth(resp))
			}
			if resp.Status == health.StatusUnhealthy {
				return errUnhealthy
			}
			return nil
		},
	}
}

func renderHealth(resp health.Response) string {
	names := make([]string, 0, len(resp.Checks))
	for name := range resp.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable("CHECK", "STATUS", "MESSAGE")
	for _, name := range names {
		c := resp.Checks[name]
		t.Row(name, string(c.Status), c.Message)
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Health"))
	s.WriteString(mutedStyle.Render("  " + string(resp.Status)))
	s.WriteString("\n")
	s.WriteString(t.String())
	return s.String()
}
