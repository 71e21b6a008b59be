package upload

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benvon/absolutely-right/internal/models"
)

// scriptedUploader returns outcomes in order and records the days it saw
type scriptedUploader struct {
	outcomes []Outcome
	calls    []string
}

func (s *scriptedUploader) Upload(_ context.Context, row models.DailyRow) Result {
	i := len(s.calls)
	s.calls = append(s.calls, row.Day)
	if i >= len(s.outcomes) {
		return Succeeded()
	}
	switch s.outcomes[i] {
	case Failure:
		return Failed(errors.New("boom"))
	case Abort:
		return Aborted(errors.New("unauthorized"))
	default:
		return Succeeded()
	}
}

func rows(days ...string) []models.DailyRow {
	out := make([]models.DailyRow, 0, len(days))
	for _, d := range days {
		out = append(out, models.DailyRow{Day: d, Count: 1, TotalMessages: 2})
	}
	return out
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		outcomes  []Outcome
		wantCalls int
		want      Summary
	}{
		{"all succeed", nil, 4, Summary{Succeeded: 4}},
		{"failure continues", []Outcome{Success, Failure, Success, Failure}, 4, Summary{Succeeded: 2, Failed: 2}},
		{"abort stops", []Outcome{Success, Abort, Success, Success}, 2, Summary{Succeeded: 1, Failed: 1, Aborted: true}},
		{"abort first", []Outcome{Abort}, 1, Summary{Failed: 1, Aborted: true}},
		{"failure then abort", []Outcome{Failure, Failure, Abort}, 3, Summary{Failed: 3, Aborted: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			up := &scriptedUploader{outcomes: tt.outcomes}
			var out bytes.Buffer

			got := Run(context.Background(), up, rows("2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"), &out)

			if got != tt.want {
				t.Errorf("Run() = %+v, want %+v", got, tt.want)
			}
			if len(up.calls) != tt.wantCalls {
				t.Errorf("uploader called %d times, want %d", len(up.calls), tt.wantCalls)
			}
			if !strings.Contains(out.String(), "Upload complete:") {
				t.Errorf("missing summary line:\n%s", out.String())
			}
		})
	}
}

func TestRun_Output(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	Run(context.Background(), &scriptedUploader{outcomes: []Outcome{Success, Failure}}, rows("2024-01-02", "2024-01-03"), &out)

	text := out.String()
	for _, want := range []string{
		"Uploading to API...",
		"  Uploading 2024-01-02: absolutely= 1, right= 0, total=  2...",
		"✓\n",
		"✗\n",
		"Upload complete: 1 successful, 1 failed\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			got, err := Confirm(strings.NewReader(tt.input), &out, 3)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Found 3 days with data to upload.") ||
				!strings.HasSuffix(out.String(), "Continue with upload? (y/N): ") {
				t.Errorf("unexpected prompt %q", out.String())
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	if Success.String() != "success" || Failure.String() != "failure" || Abort.String() != "abort" {
		t.Error("unexpected outcome names")
	}
}
