// Package solver searches for a single-vehicle route that starts and ends at
// node 0 under time windows, a capacity limit, skip penalties and pairwise
// precedence on arrival times.
package solver

import (
	"errors"
	"fmt"
	"time"
)

// DefaultHorizon is the latest arrival time, in minutes, at any node.
const DefaultHorizon = 1440

var (
	// ErrInfeasible is returned when no route satisfies the constraints,
	// even with every optional node skipped.
	ErrInfeasible = errors.New("no feasible route")
	// ErrInvalidProblem wraps structural problems in the input.
	ErrInvalidProblem = errors.New("invalid routing problem")
)

// Window bounds the arrival time at a node, in minutes.
type Window struct {
	Start int
	End   int
}

// Precedence requires arrival(Before) <= arrival(After) when both are visited.
type Precedence struct {
	Before int
	After  int
}

// Problem is a routing instance. Node 0 is the depot; every other node may be
// skipped for Penalty[node]. All per-node slices are indexed by node.
type Problem struct {
	// Time[i][j] is the travel time in minutes from i to j.
	Time [][]int
	// Service is the time spent at a node before leaving it.
	Service    []int
	Windows    []Window
	Demand     []int
	Capacity   int
	Penalty    []int
	Precedence []Precedence
	// Horizon caps every arrival time; zero means DefaultHorizon.
	Horizon int
}

// Size returns the number of nodes.
func (p *Problem) Size() int { return len(p.Time) }

// Transit is the cost and time of the arc i→j: travel plus service at i.
func (p *Problem) Transit(i, j int) int { return p.Time[i][j] + p.Service[i] }

func (p *Problem) validate() error {
	n := len(p.Time)
	if n == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidProblem)
	}
	for i, row := range p.Time {
		if len(row) != n {
			return fmt.Errorf("%w: time row %d has %d cells, want %d", ErrInvalidProblem, i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: negative time %d->%d", ErrInvalidProblem, i, j)
			}
		}
	}
	if len(p.Service) != n || len(p.Windows) != n || len(p.Demand) != n || len(p.Penalty) != n {
		return fmt.Errorf("%w: per-node slices must have %d entries", ErrInvalidProblem, n)
	}
	for i := 0; i < n; i++ {
		if p.Service[i] < 0 || p.Demand[i] < 0 || p.Penalty[i] < 0 {
			return fmt.Errorf("%w: node %d has a negative service, demand or penalty", ErrInvalidProblem, i)
		}
		if p.Windows[i].Start > p.Windows[i].End {
			return fmt.Errorf("%w: node %d window [%d,%d] is empty", ErrInvalidProblem, i, p.Windows[i].Start, p.Windows[i].End)
		}
	}
	if p.Capacity < 0 {
		return fmt.Errorf("%w: negative capacity", ErrInvalidProblem)
	}
	for _, pr := range p.Precedence {
		if pr.Before <= 0 || pr.Before >= n || pr.After <= 0 || pr.After >= n || pr.Before == pr.After {
			return fmt.Errorf("%w: precedence %d->%d out of range", ErrInvalidProblem, pr.Before, pr.After)
		}
	}
	return nil
}

// Options bound the search. Zero values select defaults.
type Options struct {
	// TimeLimit is the wall-clock budget; default 10s.
	TimeLimit time.Duration
	// MaxIterations caps search iterations; zero means no cap.
	MaxIterations int
	// StallLimit stops the search after this many iterations without a new
	// best solution; zero means the search runs until the budget or the
	// iteration cap ends it.
	StallLimit int
	// Lambda scales arc penalties against the mean arc cost of the first
	// local optimum; default 0.1.
	Lambda float64
}

func (o Options) withDefaults() Options {
	if o.TimeLimit <= 0 {
		o.TimeLimit = 10 * time.Second
	}
	if o.MaxIterations < 0 {
		o.MaxIterations = 0
	}
	if o.StallLimit < 0 {
		o.StallLimit = 0
	}
	if o.Lambda <= 0 {
		o.Lambda = 0.1
	}
	return o
}

// Solution is the best feasible route found.
type Solution struct {
	// Route starts and ends at node 0.
	Route []int
	// Arrivals[k] is the arrival time at Route[k]; Arrivals[0] is the departure.
	Arrivals []int
	// Skipped lists unvisited nodes in ascending order.
	Skipped []int
	// Objective is travel cost plus skip penalties.
	Objective  int
	Iterations int
}
