package patterns

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	set := MustDefaults()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"absolutely contraction", "You're absolutely right!", []string{"absolutely"}},
		{"absolutely expanded lowercase", "you are ABSOLUTELY right", []string{"absolutely"}},
		{"plain right", "Ah, you're right, fixing now.", []string{"right"}},
		{"both in one segment", "You are right. Actually, you're absolutely right.", []string{"absolutely", "right"}},
		{"no match", "Let me check the file.", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := set.Match(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list []Pattern
	}{
		{"empty list", nil},
		{"bad regexp", []Pattern{{Name: "x", Expr: "(unclosed"}}},
		{"missing name", []Pattern{{Expr: "ok"}}},
		{"duplicate names", []Pattern{{Name: "x", Expr: "a"}, {Name: "x", Expr: "b"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Compile(tt.list); err == nil {
				t.Error("expected error but got nil")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `patterns:
  - name: absolutely
    expr: "You(?:'re| are) absolutely right"
  - name: sorry
    expr: "I apologi[sz]e"
    label: "I apologise"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write pattern file: %v", err)
	}

	set, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got, want := set.Names(), []string{"absolutely", "sorry"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if !set.Has("sorry") || set.Has("right") {
		t.Errorf("Has() reports wrong membership for %v", set.Names())
	}
	if got := set.Match("I apologise for that"); !reflect.DeepEqual(got, []string{"sorry"}) {
		t.Errorf("Match() = %v, want [sorry]", got)
	}
	wantLabels := map[string]string{"absolutely": "absolutely", "sorry": "I apologise"}
	if got := set.Labels(); !reflect.DeepEqual(got, wantLabels) {
		t.Errorf("Labels() = %v, want %v", got, wantLabels)
	}
}

func TestLoadFile_EmptyPathUsesDefaults(t *testing.T) {
	t.Parallel()

	set, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") error = %v", err)
	}
	if got, want := set.Names(), []string{Highlight, Secondary}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
