// Package sequence counts first-order transitions in per-entity label
// sequences: for every entity, labels are ordered by time and each adjacent
// pair (from, to) is counted once.
package sequence

import (
	"cmp"
	"slices"
	"time"
)

// Event is one labelled observation for an entity.
//
// Seq is a stable row id. Events of the same entity with equal Time are
// ordered by Seq, then by their position in the input.
type Event struct {
	Entity string
	Time   time.Time
	Label  string
	Seq    int
}

// Edge is an ordered label pair with its occurrence count.
type Edge struct {
	From  string
	To    string
	Count int
}

type pair struct {
	from, to string
}

// Transitions is an immutable transition count table.
type Transitions struct {
	counts   map[pair]int
	entities int
	total    int
}

// CountTransitions groups events by entity, orders each group by time and
// counts adjacent label pairs. Events with an empty entity are ignored. An
// event with an empty label keeps its place in the sequence but breaks it:
// no pair is counted into or out of it. Single-event sequences contribute
// nothing.
func CountTransitions(events []Event) *Transitions {
	groups := make(map[string][]int)
	for i, e := range events {
		if e.Entity == "" {
			continue
		}
		groups[e.Entity] = append(groups[e.Entity], i)
	}

	t := &Transitions{
		counts:   make(map[pair]int),
		entities: len(groups),
	}
	for _, idx := range groups {
		slices.SortStableFunc(idx, func(a, b int) int {
			ea, eb := events[a], events[b]
			if c := ea.Time.Compare(eb.Time); c != 0 {
				return c
			}
			return cmp.Compare(ea.Seq, eb.Seq)
		})
		for i := 1; i < len(idx); i++ {
			from, to := events[idx[i-1]].Label, events[idx[i]].Label
			if from == "" || to == "" {
				continue
			}
			t.counts[pair{from, to}]++
			t.total++
		}
	}
	return t
}

// Count returns how often from was immediately followed by to.
func (t *Transitions) Count(from, to string) int {
	return t.counts[pair{from, to}]
}

// Len returns the number of distinct ordered pairs.
func (t *Transitions) Len() int {
	return len(t.counts)
}

// Total returns the number of counted transitions.
func (t *Transitions) Total() int {
	return t.total
}

// Entities returns the number of entities with at least one event,
// labelled or not.
func (t *Transitions) Entities() int {
	return t.entities
}

// Edges returns every pair sorted by count descending, then by labels.
func (t *Transitions) Edges() []Edge {
	edges := make([]Edge, 0, len(t.counts))
	for p, c := range t.counts {
		edges = append(edges, Edge{From: p.from, To: p.to, Count: c})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return edges
}

// Outgoing returns the edges leaving from, sorted like Edges.
func (t *Transitions) Outgoing(from string) []Edge {
	var out []Edge
	for _, e := range t.Edges() {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}
