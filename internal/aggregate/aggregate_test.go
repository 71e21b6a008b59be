package aggregate

import (
	"reflect"
	"testing"

	"github.com/benvon/absolutely-right/internal/record"
)

func rec(id, date string, blocks ...[]string) record.Record {
	r := record.Record{MsgID: id, Date: date}
	for _, m := range blocks {
		r.Blocks = append(r.Blocks, record.Block{Text: "text", Matches: m})
	}
	return r
}

func snapshot(a *Aggregator) map[string]any {
	daily := make(map[string]map[string]int)
	totals := make(map[string]int)
	for _, name := range a.PatternNames() {
		daily[name] = a.Daily(name)
		totals[name] = a.TotalCount(name)
	}
	messages := make(map[string]int)
	breakdown := make(map[string]map[string]int)
	for _, d := range a.Dates() {
		messages[d] = a.TotalMessages(d)
		breakdown[d] = a.Breakdown(d)
	}
	return map[string]any{
		"daily":     daily,
		"totals":    totals,
		"messages":  messages,
		"breakdown": breakdown,
		"seen":      a.Seen(),
	}
}

func TestAbsorb_Idempotent(t *testing.T) {
	t.Parallel()

	r := rec("msg_1", "2024-01-02", []string{"absolutely", "right"})

	once := New([]string{"absolutely", "right"}, "absolutely")
	once.Absorb("app", r)

	twice := New([]string{"absolutely", "right"}, "absolutely")
	if !twice.Absorb("app", r) {
		t.Fatal("first Absorb should report a new message")
	}
	if twice.Absorb("app", r) {
		t.Error("second Absorb of the same id should report a duplicate")
	}

	if !reflect.DeepEqual(snapshot(once), snapshot(twice)) {
		t.Errorf("state differs after duplicate absorb:\n once=%v\ntwice=%v", snapshot(once), snapshot(twice))
	}
}

func TestAbsorb_DuplicateFromOtherProject(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely"}, "absolutely")
	a.Absorb("app", rec("msg_1", "2024-01-02", []string{"absolutely"}))
	a.Absorb("other", rec("msg_1", "2024-01-02", []string{"absolutely"}))

	got := a.Breakdown("2024-01-02")
	want := map[string]int{"app": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Breakdown() = %v, want %v", got, want)
	}
}

func TestAbsorb_SetUnionAcrossBlocks(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely", "right"}, "absolutely")
	a.Absorb("app", rec("msg_1", "2024-01-02",
		[]string{"absolutely", "right"},
		[]string{"absolutely"},
		nil,
	))

	if got := a.DailyCount("absolutely", "2024-01-02"); got != 1 {
		t.Errorf("DailyCount(absolutely) = %d, want 1", got)
	}
	if got := a.DailyCount("right", "2024-01-02"); got != 1 {
		t.Errorf("DailyCount(right) = %d, want 1", got)
	}
	if got := a.TotalCount("absolutely"); got != 1 {
		t.Errorf("TotalCount(absolutely) = %d, want 1", got)
	}
	if got := a.Breakdown("2024-01-02")["app"]; got != 1 {
		t.Errorf("Breakdown[app] = %d, want 1", got)
	}
}

func TestAbsorb_CountsBoundedByMessages(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely", "right"}, "absolutely")
	inputs := []record.Record{
		rec("a", "2024-01-01", []string{"absolutely"}),
		rec("b", "2024-01-01", []string{"absolutely", "right"}, []string{"right"}),
		rec("c", "2024-01-01"),
		rec("d", "2024-01-02", []string{"right"}),
		rec("b", "2024-01-02", []string{"right"}),
	}
	for _, r := range inputs {
		a.Absorb("p", r)
	}

	for _, d := range a.Dates() {
		for _, name := range a.PatternNames() {
			c := a.DailyCount(name, d)
			if c < 0 || c > a.TotalMessages(d) {
				t.Errorf("DailyCount(%s, %s) = %d outside [0, %d]", name, d, c, a.TotalMessages(d))
			}
		}
	}
	if got := a.TotalMessages("2024-01-01"); got != 3 {
		t.Errorf("TotalMessages(2024-01-01) = %d, want 3", got)
	}
	if got := a.TotalMessages("2024-01-02"); got != 1 {
		t.Errorf("TotalMessages(2024-01-02) = %d, want 1", got)
	}
}

func TestAbsorb_OrderInvariant(t *testing.T) {
	t.Parallel()

	inputs := []record.Record{
		rec("a", "2024-01-01", []string{"absolutely"}),
		rec("b", "2024-01-02", []string{"right"}),
		rec("c", "2024-01-02", []string{"absolutely", "right"}),
		rec("a", "2024-01-01", []string{"absolutely"}),
		rec("d", "2024-01-03"),
	}
	projects := []string{"x", "y", "y", "z", "x"}

	forward := New([]string{"absolutely", "right"}, "absolutely")
	for i, r := range inputs {
		forward.Absorb(projects[i], r)
	}

	backward := New([]string{"absolutely", "right"}, "absolutely")
	for i := len(inputs) - 1; i >= 0; i-- {
		backward.Absorb(projects[i], inputs[i])
	}

	// Project attribution of the duplicated id depends on order; counts do not.
	f, b := snapshot(forward), snapshot(backward)
	for _, key := range []string{"daily", "totals", "messages", "seen"} {
		if !reflect.DeepEqual(f[key], b[key]) {
			t.Errorf("%s differs: forward=%v backward=%v", key, f[key], b[key])
		}
	}
}

func TestAbsorb_ProjectAttribution(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely", "right"}, "absolutely")
	a.Absorb("A", rec("1", "2024-01-05", []string{"absolutely"}))
	a.Absorb("A", rec("2", "2024-01-05", []string{"absolutely"}))
	a.Absorb("B", rec("3", "2024-01-05", []string{"absolutely"}))
	a.Absorb("B", rec("4", "2024-01-05", []string{"right"}))

	got := a.Breakdown("2024-01-05")
	want := map[string]int{"A": 2, "B": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Breakdown() = %v, want %v", got, want)
	}

	sum := 0
	for _, c := range got {
		sum += c
	}
	if sum != a.DailyCount("absolutely", "2024-01-05") {
		t.Errorf("breakdown sum %d != daily count %d", sum, a.DailyCount("absolutely", "2024-01-05"))
	}
}

func TestDates_UnionOfPatternsAndTotals(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely"}, "absolutely")
	a.Absorb("p", rec("1", "2024-01-03", []string{"absolutely"}))
	a.Absorb("p", rec("2", "2024-01-01"))
	a.Absorb("p", rec("3", "2024-01-02", []string{"absolutely"}))

	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if got := a.Dates(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dates() = %v, want %v", got, want)
	}
}

func TestHasMatches(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely"}, "absolutely")
	if a.HasMatches() {
		t.Error("empty aggregator should have no matches")
	}
	a.Absorb("p", rec("1", "2024-01-01"))
	if a.HasMatches() {
		t.Error("message without matches should not count as a match")
	}
	a.Absorb("p", rec("2", "2024-01-01", []string{"absolutely"}))
	if !a.HasMatches() {
		t.Error("expected HasMatches after a matching message")
	}
}

func TestBreakdown_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a := New([]string{"absolutely"}, "absolutely")
	a.Absorb("p", rec("1", "2024-01-01", []string{"absolutely"}))

	b := a.Breakdown("2024-01-01")
	b["p"] = 100
	if got := a.Breakdown("2024-01-01")["p"]; got != 1 {
		t.Errorf("mutating the returned map changed state: got %d", got)
	}
}
