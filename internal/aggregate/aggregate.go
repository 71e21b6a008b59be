package aggregate

import (
	"sort"

	"github.com/benvon/absolutely-right/internal/record"
	"github.com/samber/lo"
)

// Aggregator folds parsed records into per-day, per-pattern counters.
// Each message id contributes at most once; counters only ever grow.
// It is owned by a single scan and is not safe for concurrent use.
type Aggregator struct {
	highlight     string
	names         []string
	daily         map[string]map[string]int
	totals        map[string]int
	totalMessages map[string]int
	breakdown     map[string]map[string]int
	seen          map[string]struct{}
}

// New creates an empty aggregator for the given patterns.
// highlight names the pattern that gets a per-project breakdown.
func New(patternNames []string, highlight string) *Aggregator {
	a := &Aggregator{
		highlight:     highlight,
		names:         append([]string(nil), patternNames...),
		daily:         make(map[string]map[string]int, len(patternNames)),
		totals:        make(map[string]int, len(patternNames)),
		totalMessages: make(map[string]int),
		breakdown:     make(map[string]map[string]int),
		seen:          make(map[string]struct{}),
	}
	for _, name := range patternNames {
		a.daily[name] = make(map[string]int)
		a.totals[name] = 0
	}
	return a
}

// Absorb adds one record attributed to project. It returns false when the
// message id was already absorbed, in which case nothing changes.
func (a *Aggregator) Absorb(project string, rec record.Record) bool {
	if _, dup := a.seen[rec.MsgID]; dup {
		return false
	}
	a.seen[rec.MsgID] = struct{}{}
	a.totalMessages[rec.Date]++

	for name := range rec.MatchedPatterns() {
		days, ok := a.daily[name]
		if !ok {
			days = make(map[string]int)
			a.daily[name] = days
			a.names = append(a.names, name)
		}
		days[rec.Date]++
		a.totals[name]++

		if name == a.highlight {
			projects, ok := a.breakdown[rec.Date]
			if !ok {
				projects = make(map[string]int)
				a.breakdown[rec.Date] = projects
			}
			projects[project]++
		}
	}
	return true
}

// Highlight returns the name of the breakdown pattern
func (a *Aggregator) Highlight() string { return a.highlight }

// PatternNames returns tracked pattern names in declaration order
func (a *Aggregator) PatternNames() []string {
	return append([]string(nil), a.names...)
}

// Seen returns how many distinct messages were absorbed
func (a *Aggregator) Seen() int { return len(a.seen) }

// DailyCount returns the number of distinct messages matching pattern on date
func (a *Aggregator) DailyCount(pattern, date string) int {
	return a.daily[pattern][date]
}

// Daily returns a copy of the date -> count map for pattern
func (a *Aggregator) Daily(pattern string) map[string]int {
	return copyCounts(a.daily[pattern])
}

// TotalCount returns the number of distinct messages matching pattern overall
func (a *Aggregator) TotalCount(pattern string) int {
	return a.totals[pattern]
}

// DaysWith returns how many distinct dates have a match for pattern
func (a *Aggregator) DaysWith(pattern string) int {
	return len(a.daily[pattern])
}

// TotalMessages returns the number of distinct assistant messages seen on date
func (a *Aggregator) TotalMessages(date string) int {
	return a.totalMessages[date]
}

// Breakdown returns a copy of the project -> count map of the highlight pattern on date
func (a *Aggregator) Breakdown(date string) map[string]int {
	return copyCounts(a.breakdown[date])
}

// HasMatches reports whether any pattern matched at least once
func (a *Aggregator) HasMatches() bool {
	for _, days := range a.daily {
		if len(days) > 0 {
			return true
		}
	}
	return false
}

// Dates returns the sorted union of every date seen by any pattern or by the
// total-messages counter
func (a *Aggregator) Dates() []string {
	all := lo.Keys(a.totalMessages)
	for _, days := range a.daily {
		all = append(all, lo.Keys(days)...)
	}
	all = lo.Uniq(all)
	sort.Strings(all)
	return all
}

func copyCounts(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
