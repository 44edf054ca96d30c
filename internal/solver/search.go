package solver

import (
	"context"
	"fmt"
	"time"
)

const improvementEps = 1e-9

// Solve runs cheapest-insertion construction followed by guided local search.
// The search is deterministic: for a given Problem and Options it returns the
// same route unless the time budget or ctx cuts it short. Cancellation ends the
// search early and still returns the best route found.
func Solve(ctx context.Context, p Problem, opts Options) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	s := newSearch(&p, opts)
	emptyCost, _, ok := s.evaluate(nil)
	if !ok {
		return nil, fmt.Errorf("solve: empty route violates depot window: %w", ErrInfeasible)
	}
	s.cost = emptyCost
	s.best = []int{}
	s.bestObj = emptyCost + s.skipOf()

	s.construct()
	s.improve(ctx, time.Now().Add(opts.TimeLimit))

	return s.solution(), nil
}

type search struct {
	p    *Problem
	opts Options
	n    int

	horizon int
	transit [][]int

	// scratch for evaluate, stamped per call
	offset []int
	mark   []int
	epoch  int

	route   []int
	visited []bool
	cost    int

	penalty [][]int
	lambda  float64

	best    []int
	bestObj int

	iterations int

	// move buffers
	cand     []int
	bestCand []int
}

func newSearch(p *Problem, opts Options) *search {
	n := p.Size()
	s := &search{
		p:       p,
		opts:    opts,
		n:       n,
		horizon: p.Horizon,
		offset:  make([]int, n),
		mark:    make([]int, n),
		visited: make([]bool, n),
		transit: make([][]int, n),
		penalty: make([][]int, n),
	}
	if s.horizon <= 0 {
		s.horizon = DefaultHorizon
	}
	for i := 0; i < n; i++ {
		s.transit[i] = make([]int, n)
		s.penalty[i] = make([]int, n)
		for j := 0; j < n; j++ {
			s.transit[i][j] = p.Transit(i, j)
		}
	}
	return s
}

// evaluate checks route (depot excluded) and returns its travel cost and the
// earliest feasible departure from the depot.
//
// Arrivals are departure + cumulative transit (no waiting), so every window
// becomes an interval constraint on the departure time, and precedence only
// compares cumulative offsets.
func (s *search) evaluate(route []int) (cost, start int, ok bool) {
	p := s.p

	load := 0
	for _, v := range route {
		load += p.Demand[v]
	}
	if load > p.Capacity {
		return 0, 0, false
	}

	depot := p.Windows[0]
	lo, hi := max(depot.Start, 0), min(depot.End, s.horizon)

	s.epoch++
	prev, off := 0, 0
	for _, v := range route {
		t := s.transit[prev][v]
		off += t
		cost += t

		w := p.Windows[v]
		lo = max(lo, w.Start-off)
		hi = min(hi, min(w.End, s.horizon)-off)
		if lo > hi {
			return 0, 0, false
		}

		s.offset[v] = off
		s.mark[v] = s.epoch
		prev = v
	}

	t := s.transit[prev][0]
	off += t
	cost += t
	lo = max(lo, depot.Start-off)
	hi = min(hi, min(depot.End, s.horizon)-off)
	if lo > hi {
		return 0, 0, false
	}

	for _, pr := range p.Precedence {
		if s.mark[pr.Before] != s.epoch || s.mark[pr.After] != s.epoch {
			continue
		}
		if s.offset[pr.Before] > s.offset[pr.After] {
			return 0, 0, false
		}
	}

	return cost, lo, true
}

// skipOf returns the penalty of the nodes left out of the route passed to the
// last successful evaluate call.
func (s *search) skipOf() int {
	total := 0
	for v := 1; v < s.n; v++ {
		if s.mark[v] != s.epoch {
			total += s.p.Penalty[v]
		}
	}
	return total
}

// augmented is the guided local search objective.
func (s *search) augmented(route []int, cost, skip int) float64 {
	pen := 0
	prev := 0
	for _, v := range route {
		pen += s.penalty[prev][v]
		prev = v
	}
	pen += s.penalty[prev][0]
	return float64(cost+skip) + s.lambda*float64(pen)
}

// construct inserts unvisited nodes one at a time at the position with the
// largest gain (penalty saved minus cost added), until no feasible insertion
// pays off. Ties keep the lowest node and position.
func (s *search) construct() {
	s.route = s.route[:0]
	for {
		bestGain, bestNode, bestPos, bestCost := 0, -1, -1, 0
		for u := 1; u < s.n; u++ {
			if s.visited[u] {
				continue
			}
			for pos := 0; pos <= len(s.route); pos++ {
				s.cand = insertAt(s.cand[:0], s.route, pos, u)
				cost, _, ok := s.evaluate(s.cand)
				if !ok {
					continue
				}
				gain := s.p.Penalty[u] - (cost - s.cost)
				if gain > bestGain {
					bestGain, bestNode, bestPos, bestCost = gain, u, pos, cost
				}
			}
		}
		if bestNode < 0 {
			break
		}
		s.route = insertAt(nil, s.route, bestPos, bestNode)
		s.visited[bestNode] = true
		s.cost = bestCost
	}
	s.recordBest()
}

// improve runs guided local search from the current route until the deadline,
// ctx, the iteration cap or the optional stall limit ends it.
func (s *search) improve(ctx context.Context, deadline time.Time) {
	stall := 0
	for {
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return
		}
		if s.opts.MaxIterations > 0 && s.iterations >= s.opts.MaxIterations {
			return
		}
		if s.opts.StallLimit > 0 && stall >= s.opts.StallLimit {
			return
		}
		s.iterations++

		if s.applyBestMove() {
			if s.recordBest() {
				stall = 0
				continue
			}
			stall++
			continue
		}

		// local optimum under the augmented objective
		if !s.penalize() {
			return
		}
		stall++
	}
}

// applyBestMove scans every neighbourhood and applies the move with the
// lowest augmented objective, if it improves on the current one.
func (s *search) applyBestMove() bool {
	s.evaluate(s.route)
	current := s.augmented(s.route, s.cost, s.skipOf())
	bestVal := current
	bestCost := 0
	found := false

	try := func() {
		cost, _, ok := s.evaluate(s.cand)
		if !ok {
			return
		}
		val := s.augmented(s.cand, cost, s.skipOf())
		if val < bestVal-improvementEps {
			bestVal, bestCost, found = val, cost, true
			s.bestCand = append(s.bestCand[:0], s.cand...)
		}
	}

	r := s.route
	k := len(r)

	// relocate
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			s.cand = relocate(s.cand[:0], r, i, j)
			try()
		}
	}
	// swap
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			s.cand = append(s.cand[:0], r...)
			s.cand[i], s.cand[j] = s.cand[j], s.cand[i]
			try()
		}
	}
	// 2-opt
	for i := 0; i < k; i++ {
		for j := i + 2; j < k; j++ {
			s.cand = append(s.cand[:0], r...)
			reverse(s.cand[i : j+1])
			try()
		}
	}
	// insert unvisited
	for u := 1; u < s.n; u++ {
		if s.visited[u] {
			continue
		}
		for pos := 0; pos <= k; pos++ {
			s.cand = insertAt(s.cand[:0], r, pos, u)
			try()
		}
	}
	// drop
	for i := 0; i < k; i++ {
		s.cand = append(append(s.cand[:0], r[:i]...), r[i+1:]...)
		try()
	}
	// exchange visited for unvisited
	for i := 0; i < k; i++ {
		for u := 1; u < s.n; u++ {
			if s.visited[u] {
				continue
			}
			s.cand = append(s.cand[:0], r...)
			s.cand[i] = u
			try()
		}
	}

	if !found {
		return false
	}

	s.route = append(s.route[:0], s.bestCand...)
	s.cost = bestCost
	for v := range s.visited {
		s.visited[v] = false
	}
	for _, v := range s.route {
		s.visited[v] = true
	}
	return true
}

// penalize increments the penalty of the route arcs with maximal utility
// cost/(1+penalty). It reports false when there is nothing to penalize.
func (s *search) penalize() bool {
	if len(s.route) == 0 {
		return false
	}

	if s.lambda == 0 {
		arcs := len(s.route) + 1
		s.lambda = s.opts.Lambda * float64(s.cost) / float64(arcs)
		if s.lambda <= 0 {
			s.lambda = s.opts.Lambda
		}
	}

	util := func(a, b int) float64 {
		return float64(s.transit[a][b]) / float64(1+s.penalty[a][b])
	}

	maxUtil := -1.0
	s.forEachArc(func(a, b int) {
		maxUtil = max(maxUtil, util(a, b))
	})
	s.forEachArc(func(a, b int) {
		if util(a, b) >= maxUtil-improvementEps {
			s.penalty[a][b]++
		}
	})
	return true
}

// recordBest saves the current route if its true objective beats the best.
func (s *search) recordBest() bool {
	s.evaluate(s.route)
	obj := s.cost + s.skipOf()
	if obj >= s.bestObj {
		return false
	}
	s.best = append(s.best[:0], s.route...)
	s.bestObj = obj
	return true
}

// forEachArc calls fn for every arc of the current route, depot arcs included.
func (s *search) forEachArc(fn func(a, b int)) {
	prev := 0
	for _, v := range s.route {
		fn(prev, v)
		prev = v
	}
	fn(prev, 0)
}

func (s *search) solution() *Solution {
	route := s.best
	_, start, _ := s.evaluate(route)

	sol := &Solution{
		Route:      make([]int, 0, len(route)+2),
		Arrivals:   make([]int, 0, len(route)+2),
		Objective:  s.bestObj,
		Iterations: s.iterations,
	}

	sol.Route = append(sol.Route, 0)
	sol.Arrivals = append(sol.Arrivals, start)
	t, prev := start, 0
	in := make([]bool, s.n)
	for _, v := range route {
		t += s.transit[prev][v]
		sol.Route = append(sol.Route, v)
		sol.Arrivals = append(sol.Arrivals, t)
		in[v] = true
		prev = v
	}
	t += s.transit[prev][0]
	sol.Route = append(sol.Route, 0)
	sol.Arrivals = append(sol.Arrivals, t)

	for v := 1; v < s.n; v++ {
		if !in[v] {
			sol.Skipped = append(sol.Skipped, v)
		}
	}
	return sol
}

func insertAt(dst, src []int, pos, v int) []int {
	dst = append(dst, src[:pos]...)
	dst = append(dst, v)
	return append(dst, src[pos:]...)
}

// relocate moves src[i] so that it ends up at index j.
func relocate(dst, src []int, i, j int) []int {
	v := src[i]
	for idx, x := range src {
		if idx != i {
			dst = append(dst, x)
		}
	}
	dst = append(dst, 0)
	copy(dst[j+1:], dst[j:len(dst)-1])
	dst[j] = v
	return dst
}

func reverse(a []int) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
