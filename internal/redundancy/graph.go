package redundancy

import (
	"sort"
	"strings"
)

// findCycles returns every distinct cycle in a directed graph. Each cycle
// is rotated to start at its smallest node, so the same cycle is reported
// identically no matter where traversal began. Traversal is an iterative
// depth-first search with an explicit recursion stack.
func findCycles(edges map[string][]string) [][]string {
	const (
		white = iota
		gray
		black
	)

	nodes := make([]string, 0, len(edges))
	for n := range edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	color := make(map[string]int, len(nodes))
	seen := make(map[string]bool)
	var cycles [][]string

	type frame struct {
		node string
		next int
	}

	for _, start := range nodes {
		if color[start] != white {
			continue
		}

		stack := []frame{{node: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := edges[top.node]
			if top.next >= len(succ) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			to := succ[top.next]
			top.next++

			switch color[to] {
			case white:
				color[to] = gray
				stack = append(stack, frame{node: to})
			case gray:
				// Back edge: the cycle is the stack suffix starting at to.
				var cycle []string
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append([]string{stack[i].node}, cycle...)
					if stack[i].node == to {
						break
					}
				}
				cycle = canonical(cycle)
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

// canonical rotates a cycle so its smallest node comes first.
func canonical(cycle []string) []string {
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	out = append(out, cycle[:minIdx]...)
	return out
}

// inCycle returns the set of nodes that lie on any cycle.
func inCycle(cycles [][]string) map[string]bool {
	set := make(map[string]bool)
	for _, c := range cycles {
		for _, n := range c {
			set[n] = true
		}
	}
	return set
}
