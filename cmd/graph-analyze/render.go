package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/analysis"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func renderDensity(r analysis.DensityReport) string {
	t := newTable("VERTICES", "EDGES", "DENSITY").
		Row(strconv.Itoa(r.VertexCount), strconv.Itoa(r.EdgeCount), formatScore(r.Density))
	return titleStyle.Render("Density") + "\n" + t.String()
}

func renderRanking(metric string, ranked []algorithms.RankedVertex) string {
	t := newTable("RANK", "VERTEX", "SCORE")
	for i, rv := range ranked {
		t.Row(strconv.Itoa(i+1), rv.VertexID, formatScore(rv.Score))
	}
	return titleStyle.Render(metric) + "\n" + t.String()
}

func renderCommunities(result *algorithms.CommunityResult) string {
	t := newTable("COMMUNITY", "SIZE", "DENSITY", "MEMBERS")
	for _, c := range result.Communities {
		t.Row(strconv.Itoa(c.ID), strconv.Itoa(c.Size), formatScore(c.Density), summarizeMembers(c.Vertices, 6))
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(string(result.Algorithm)))
	s.WriteString(mutedStyle.Render(fmt.Sprintf("  modularity %s, %d communities, %d iterations",
		formatScore(result.Modularity), len(result.Communities), result.Iterations)))
	s.WriteString("\n")
	s.WriteString(t.String())
	return s.String()
}

func renderResults(metric string, rows []analysis.AnalysisResult) string {
	if len(rows) == 0 {
		return mutedStyle.Render(fmt.Sprintf("no results for %s", metric))
	}
	t := newTable("VERTEX", "VALUE")
	for _, r := range rows {
		id := r.VertexID
		if id == "" {
			id = "(graph)"
		}
		t.Row(id, formatScore(r.MetricValue))
	}
	header := fmt.Sprintf("  run %s at %s", rows[0].RunID, rows[0].ComputedAt.Format("2006-01-02 15:04:05Z07:00"))
	return titleStyle.Render(metric) + mutedStyle.Render(header) + "\n" + t.String()
}

func renderAssignments(algorithm string, rows []analysis.CommunityAssignment) string {
	if len(rows) == 0 {
		return mutedStyle.Render(fmt.Sprintf("no communities for %s", algorithm))
	}
	t := newTable("VERTEX", "COMMUNITY")
	for _, a := range rows {
		t.Row(a.VertexID, strconv.Itoa(a.CommunityID))
	}
	header := fmt.Sprintf("  run %s, modularity %s", rows[0].RunID, formatScore(rows[0].Modularity))
	return titleStyle.Render(algorithm) + mutedStyle.Render(header) + "\n" + t.String()
}

// summarizeMembers lists up to limit ids and counts the rest
func summarizeMembers(ids []string, limit int) string {
	if len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(ids[:limit], ", "), len(ids)-limit)
}
