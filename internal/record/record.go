package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/absolutely-right/internal/patterns"
)

// DateLayout is the sortable day key used throughout the aggregates
const DateLayout = "2006-01-02"

// ErrNotApplicable marks a line that does not describe a countable assistant message
var ErrNotApplicable = errors.New("line is not an assistant message")

// Block is one text segment of a message and the patterns it matched
type Block struct {
	Text    string
	Matches []string
}

// Record is a parsed assistant message
type Record struct {
	MsgID  string
	Date   string
	Blocks []Block
}

// MatchedPatterns returns the union of pattern names across all blocks
func (r Record) MatchedPatterns() map[string]struct{} {
	union := make(map[string]struct{})
	for _, b := range r.Blocks {
		for _, name := range b.Matches {
			union[name] = struct{}{}
		}
	}
	return union
}

type entry struct {
	Type      string   `json:"type"`
	UUID      string   `json:"uuid"`
	Timestamp string   `json:"timestamp"`
	Message   *message `json:"message"`
}

type message struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Parse decodes one JSONL line into a Record, running every text segment
// through the pattern set. Dates are computed in loc (UTC when nil).
// Any line that cannot be counted yields an error wrapping ErrNotApplicable.
func Parse(line []byte, set *patterns.Set, loc *time.Location) (Record, error) {
	var e entry
	if err := json.Unmarshal(line, &e); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrNotApplicable, err)
	}

	if e.Type != "assistant" || e.Message == nil {
		return Record{}, ErrNotApplicable
	}
	if e.Message.Role != "" && e.Message.Role != "assistant" {
		return Record{}, ErrNotApplicable
	}

	id := e.Message.ID
	if id == "" {
		id = e.UUID
	}
	if id == "" {
		return Record{}, fmt.Errorf("%w: missing message id", ErrNotApplicable)
	}

	date, err := dayOf(e.Timestamp, loc)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrNotApplicable, err)
	}

	texts := textSegments(e.Message.Content)
	if len(texts) == 0 {
		return Record{}, fmt.Errorf("%w: no text content", ErrNotApplicable)
	}

	rec := Record{MsgID: id, Date: date, Blocks: make([]Block, 0, len(texts))}
	for _, text := range texts {
		rec.Blocks = append(rec.Blocks, Block{Text: text, Matches: set.Match(text)})
	}
	return rec, nil
}

func dayOf(ts string, loc *time.Location) (string, error) {
	if ts == "" {
		return "", errors.New("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return "", fmt.Errorf("bad timestamp %q: %w", ts, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout), nil
}

// textSegments accepts either a plain string or a list of typed content blocks
func textSegments(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{s}
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}

	var texts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	return texts
}
