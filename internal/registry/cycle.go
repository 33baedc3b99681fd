package registry

import "slices"

// inheritanceGraph maps a folded declaration name to the folded names it
// inherits from (class parent, implemented and extended interfaces).
type inheritanceGraph map[string][]string

func (r *Registry) buildInheritanceGraph() inheritanceGraph {
	graph := make(inheritanceGraph)
	for _, key := range r.order {
		edges := []string{}
		if iface, ok := r.interfaces[key]; ok {
			for _, parent := range iface.Extends {
				edges = append(edges, fold(parent))
			}
		} else {
			class := r.classes[key]
			if class.Extends != "" {
				edges = append(edges, fold(class.Extends))
			}
			for _, iface := range class.Implements {
				edges = append(edges, fold(iface))
			}
		}
		graph[key] = edges
	}
	return graph
}

// inheritanceCycles returns each cycle as declared names, in declaration
// order of their first member.
func (r *Registry) inheritanceCycles() [][]string {
	graph := r.buildInheritanceGraph()

	position := make(map[string]int, len(r.order))
	for i, key := range r.order {
		position[key] = i
	}
	sccs := tarjanSCC(r.order, graph)
	slices.SortFunc(sccs, func(a, b []string) int {
		return position[a[0]] - position[b[0]]
	})

	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			names := make([]string, len(scc))
			for i, key := range scc {
				names[i] = r.displayName(key)
			}
			cycles = append(cycles, names)
		}
	}
	return cycles
}

func (r *Registry) hasCycle(name string) bool {
	key := fold(name)
	for _, cycle := range r.inheritanceCycles() {
		for _, n := range cycle {
			if fold(n) == key {
				return true
			}
		}
	}
	return false
}

func (r *Registry) displayName(key string) string {
	if iface, ok := r.interfaces[key]; ok {
		return iface.Name
	}
	if class, ok := r.classes[key]; ok {
		return class.Name
	}
	return key
}

func hasSelfLoop(node string, graph inheritanceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so results are deterministic; each
// SCC is sorted by that order.
func tarjanSCC(nodes []string, graph inheritanceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	position := make(map[string]int, len(nodes))
	for i, n := range nodes {
		position[n] = i
	}

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, declared := graph[w]; !declared {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.SortFunc(scc, func(a, b string) int {
				return position[a] - position[b]
			})
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}

	return sccs
}
