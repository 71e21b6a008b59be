package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/benvon/absolutely-right/internal/aggregate"
	"github.com/benvon/absolutely-right/internal/models"
)

// View is the reportable slice of a scan: every date except the earliest one
// across all patterns and the total-messages series.
type View struct {
	Highlight     string
	Secondary     string
	Patterns      []string
	SkippedDay    string
	Dates         []string
	Daily         map[string]map[string]int
	TotalMessages map[string]int
	Breakdown     map[string]map[string]int
	// Labels names patterns in totals; missing entries fall back to the name
	Labels map[string]string
}

// Build derives a View from the aggregates. The first calendar day of data
// is usually partial, so it is removed from every series.
func Build(agg *aggregate.Aggregator, secondary string) View {
	v := View{
		Highlight:     agg.Highlight(),
		Secondary:     secondary,
		Patterns:      agg.PatternNames(),
		Daily:         make(map[string]map[string]int),
		TotalMessages: make(map[string]int),
		Breakdown:     make(map[string]map[string]int),
	}

	dates := agg.Dates()
	if len(dates) > 0 {
		v.SkippedDay = dates[0]
		dates = dates[1:]
	}
	v.Dates = dates

	for _, name := range v.Patterns {
		days := make(map[string]int)
		for _, d := range dates {
			if c := agg.DailyCount(name, d); c > 0 {
				days[d] = c
			}
		}
		v.Daily[name] = days
	}
	for _, d := range dates {
		v.TotalMessages[d] = agg.TotalMessages(d)
		if bd := agg.Breakdown(d); len(bd) > 0 {
			v.Breakdown[d] = bd
		}
	}
	return v
}

// Count returns the reported count of pattern on date
func (v View) Count(pattern, date string) int {
	return v.Daily[pattern][date]
}

// Label returns the display label of pattern
func (v View) Label(pattern string) string {
	if l := v.Labels[pattern]; l != "" {
		return l
	}
	return pattern
}

// Total sums the reported counts of pattern
func (v View) Total(pattern string) int {
	sum := 0
	for _, c := range v.Daily[pattern] {
		sum += c
	}
	return sum
}

// Rows returns one upload row per reported date with any nonzero value
func (v View) Rows() []models.DailyRow {
	var rows []models.DailyRow
	for _, d := range v.Dates {
		row := models.DailyRow{
			Day:           d,
			Count:         v.Count(v.Highlight, d),
			RightCount:    v.Count(v.Secondary, d),
			TotalMessages: v.TotalMessages[d],
		}
		if row.HasData() {
			rows = append(rows, row)
		}
	}
	return rows
}

// ProjectNote describes where the highlight pattern appeared on date
func (v View) ProjectNote(date string) string {
	projects := v.Breakdown[date]
	switch len(projects) {
	case 0:
		return ""
	case 1:
		for name := range projects {
			return fmt.Sprintf(" (in %s)", name)
		}
	}

	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if projects[names[i]] != projects[names[j]] {
			return projects[names[i]] > projects[names[j]]
		}
		return names[i] < names[j]
	})

	others := len(projects) - 1
	if others == 1 {
		return fmt.Sprintf(" (in %s and 1 other project)", names[0])
	}
	return fmt.Sprintf(" (in %s and %d other projects)", names[0], others)
}

// WriteText renders the per-day table followed by totals
func WriteText(w io.Writer, v View) error {
	var b strings.Builder
	for _, d := range v.Dates {
		fmt.Fprintf(&b, "%s: %s=%3d, %s=%3d, total=%3d%s\n",
			d,
			v.Highlight, v.Count(v.Highlight, d),
			v.Secondary, v.Count(v.Secondary, d),
			v.TotalMessages[d],
			v.ProjectNote(d),
		)
	}
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Total '%s': %d\n", v.Label(v.Highlight), v.Total(v.Highlight))
	fmt.Fprintf(&b, "Total '%s': %d\n", v.Label(v.Secondary), v.Total(v.Secondary))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteJSON renders every pattern's date -> count map plus the per-date
// project breakdown under "by_date"
func WriteJSON(w io.Writer, v View) error {
	out := make(map[string]any, len(v.Patterns)+1)
	for _, name := range v.Patterns {
		out[name] = v.Daily[name]
	}
	out["by_date"] = v.Breakdown

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
