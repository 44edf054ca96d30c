package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Default priority levels, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityUrgent   = "urgent"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// PriorityLevel is one named rank in a PriorityRanking. Higher rank = more urgent.
type PriorityLevel struct {
	Name string `yaml:"name"`
	Rank int    `yaml:"rank"`
}

// PriorityRanking is an ordered enumeration of priority levels.
// Lookups are case-insensitive. The zero value ranks every name at 1.
type PriorityRanking struct {
	levels []PriorityLevel
	byName map[string]int
}

// DefaultPriorityRanking returns critical=5, urgent=4, high=3, medium=2, low=1.
func DefaultPriorityRanking() PriorityRanking {
	r, _ := NewPriorityRanking([]PriorityLevel{
		{Name: PriorityCritical, Rank: 5},
		{Name: PriorityUrgent, Rank: 4},
		{Name: PriorityHigh, Rank: 3},
		{Name: PriorityMedium, Rank: 2},
		{Name: PriorityLow, Rank: 1},
	})
	return r
}

// NewPriorityRanking validates levels and builds a ranking.
// Names must be unique (case-insensitive) and ranks must be positive.
func NewPriorityRanking(levels []PriorityLevel) (PriorityRanking, error) {
	if len(levels) == 0 {
		return PriorityRanking{}, fmt.Errorf("priority ranking: at least one level is required")
	}

	byName := make(map[string]int, len(levels))
	out := make([]PriorityLevel, 0, len(levels))
	for i, l := range levels {
		name := strings.ToLower(strings.TrimSpace(l.Name))
		if name == "" {
			return PriorityRanking{}, fmt.Errorf("priority ranking: level %d has empty name", i+1)
		}
		if l.Rank <= 0 {
			return PriorityRanking{}, fmt.Errorf("priority ranking: level %q rank must be positive, got %d", name, l.Rank)
		}
		if _, dup := byName[name]; dup {
			return PriorityRanking{}, fmt.Errorf("priority ranking: duplicate level %q", name)
		}
		byName[name] = l.Rank
		out = append(out, PriorityLevel{Name: name, Rank: l.Rank})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })

	return PriorityRanking{levels: out, byName: byName}, nil
}

// Rank returns the rank for name and whether name is a known level.
// Unknown names rank 1.
func (r PriorityRanking) Rank(name string) (int, bool) {
	rank, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 1, false
	}
	return rank, true
}

// Known reports whether name is a level of the ranking.
func (r PriorityRanking) Known(name string) bool {
	_, ok := r.Rank(name)
	return ok
}

// Names returns level names from most to least urgent.
func (r PriorityRanking) Names() []string {
	names := make([]string, 0, len(r.levels))
	for _, l := range r.levels {
		names = append(names, l.Name)
	}
	return names
}
