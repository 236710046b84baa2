// Package memory keeps what a dialogue remembers between turns: a bounded
// turn log, long-term facts, detected contradictions and record snapshots.
//
// Memory is a value type. Every method returns an updated copy and leaves
// the receiver untouched, so dialogue states holding a Memory can be shared.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/posting-assistant/internal/contradiction"
	"github.com/jonathan/posting-assistant/internal/types"
)

// Bounds on the retained history.
const (
	MaxTurns     = 35
	MaxSnapshots = 10
	// SummaryTurns is how many recent turns feed a summary.
	SummaryTurns = 5
)

// Role is the speaker of a turn.
type Role string

// Speakers.
const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Turn is one message of the conversation.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Snapshot is the record as it stood after a successful commit.
type Snapshot struct {
	Field  types.FieldKey `json:"field"`
	Record types.Record   `json:"record"`
	At     time.Time      `json:"at"`
}

// Memory is the conversation memory of one session.
type Memory struct {
	Turns          []Turn                        `json:"turns,omitempty"`
	Facts          map[string]string             `json:"facts,omitempty"`
	Contradictions []contradiction.Contradiction `json:"contradictions,omitempty"`
	Snapshots      []Snapshot                    `json:"snapshots,omitempty"`
}

// WithTurn appends a turn, dropping the oldest beyond MaxTurns.
func (m Memory) WithTurn(role Role, content string, at time.Time) Memory {
	m.Turns = appendBounded(m.Turns, Turn{Role: role, Content: content, At: at}, MaxTurns)
	return m
}

// WithFacts merges extracted facts. Empty values and "None" never overwrite
// what is already known.
func (m Memory) WithFacts(facts map[string]string) Memory {
	if len(facts) == 0 {
		return m
	}
	out := make(map[string]string, len(m.Facts)+len(facts))
	for k, v := range m.Facts {
		out[k] = v
	}
	for k, v := range facts {
		v = strings.TrimSpace(v)
		if k == "" || v == "" || strings.EqualFold(v, "none") || v == "null" {
			continue
		}
		out[k] = v
	}
	m.Facts = out
	return m
}

// WithContradiction logs a detected contradiction.
func (m Memory) WithContradiction(c contradiction.Contradiction) Memory {
	m.Contradictions = append(append([]contradiction.Contradiction(nil), m.Contradictions...), c)
	return m
}

// WithSnapshot records the record after field was committed, dropping the
// oldest beyond MaxSnapshots.
func (m Memory) WithSnapshot(field types.FieldKey, r types.Record, at time.Time) Memory {
	m.Snapshots = appendBounded(m.Snapshots, Snapshot{Field: field, Record: r.Clone(), At: at}, MaxSnapshots)
	return m
}

// LastUserTurn returns the most recent user message.
func (m Memory) LastUserTurn() (string, bool) {
	for i := len(m.Turns) - 1; i >= 0; i-- {
		if m.Turns[i].Role == RoleUser {
			return m.Turns[i].Content, true
		}
	}
	return "", false
}

// Transcript renders the last n turns as "role: content" lines.
func (m Memory) Transcript(n int) string {
	turns := m.Turns
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", t.Role, t.Content)
	}
	return b.String()
}

// FactsLine renders the known facts in lang, sorted by category. It is empty
// when nothing is known.
func (m Memory) FactsLine(lang string) string {
	if len(m.Facts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m.Facts))
	for k := range m.Facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m.Facts[k])
	}
	return text(lang, textFacts) + " " + strings.Join(parts, ", ")
}

func appendBounded[T any](in []T, item T, limit int) []T {
	start := 0
	if len(in)+1 > limit {
		start = len(in) + 1 - limit
	}
	out := make([]T, 0, len(in)-start+1)
	out = append(out, in[start:]...)
	return append(out, item)
}
