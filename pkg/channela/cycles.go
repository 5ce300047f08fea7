package channela

import (
	"encoding/json"
	"strings"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Explicit dependency-list keys. Their string elements name other vertices.
var depListKeys = map[string]bool{
	"dependencies": true,
	"deps":         true,
	"requires":     true,
	"depends_on":   true,
}

// Explicit single-reference keys.
var refKeys = map[string]bool{
	"references": true,
	"ref":        true,
}

const refPrefix = "$ref:"

// DetectCycles interprets the AST as a directed dependency graph and reports
// whether it contains a cycle. Vertices are the JSON paths reachable from the
// root; edges come from string values naming a key visible at an outer scope,
// $ref: strings, and explicit dependency fields. A raw AST larger than the
// cycle budget is reported as cyclic rather than walked unbounded.
func DetectCycles(astJSON []byte) bool {
	if len(astJSON) > contracts.CycleBudgetBytes {
		return true
	}

	var ast interface{}
	if err := json.Unmarshal(astJSON, &ast); err != nil {
		return false
	}

	g := newDepGraph()
	g.walk(ast, "", nil)
	return g.hasCycle()
}

// CycleDetail returns every strongly connected component that forms a cycle,
// as lists of vertex paths, for audit display.
func CycleDetail(astJSON []byte) [][]string {
	if len(astJSON) > contracts.CycleBudgetBytes {
		return [][]string{{"(ast exceeds cycle budget)"}}
	}

	var ast interface{}
	if err := json.Unmarshal(astJSON, &ast); err != nil {
		return nil
	}

	g := newDepGraph()
	g.walk(ast, "", nil)

	var cycles [][]string
	for _, scc := range g.tarjan() {
		if len(scc) > 1 {
			paths := make([]string, len(scc))
			for i, v := range scc {
				paths[i] = g.paths[v]
			}
			cycles = append(cycles, paths)
		} else if g.selfEdge[scc[0]] {
			cycles = append(cycles, []string{g.paths[scc[0]]})
		}
	}
	return cycles
}

// depGraph is a flat arena of path-indexed vertices with an adjacency list.
// No cyclic references exist at the implementation level even when the AST
// describes a cyclic dependency structure.
type depGraph struct {
	paths    []string
	index    map[string]int
	adj      [][]int
	selfEdge map[int]bool
}

// scope maps key names visible at one object level to their vertex ids.
type scope struct {
	keys   map[string]int
	parent *scope
}

func (s *scope) lookup(name string) (int, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if id, ok := cur.keys[name]; ok {
			return id, true
		}
	}
	return 0, false
}

func newDepGraph() *depGraph {
	return &depGraph{index: make(map[string]int), selfEdge: make(map[int]bool)}
}

func (g *depGraph) vertex(path string) int {
	if id, ok := g.index[path]; ok {
		return id
	}
	id := len(g.paths)
	g.paths = append(g.paths, path)
	g.index[path] = id
	g.adj = append(g.adj, nil)
	return id
}

func (g *depGraph) edge(from, to int) {
	if from == to {
		g.selfEdge[from] = true
	}
	g.adj[from] = append(g.adj[from], to)
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// walk registers vertices and edges. path is the vertex path of the nearest
// enclosing key ("" at the root, which has no owner vertex), outer the scope
// chain above this value.
func (g *depGraph) walk(v interface{}, path string, outer *scope) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return
	}

	// Register all keys of this object first so forward references resolve.
	local := &scope{keys: make(map[string]int, len(obj)), parent: outer}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	for _, k := range keys {
		local.keys[k] = g.vertex(joinPath(path, k))
	}

	ownerID := -1
	if path != "" {
		ownerID = g.vertex(path)
	}

	for _, k := range keys {
		kid := local.keys[k]
		val := obj[k]

		// Containment edge: a path depends on its sub-paths, so a cycle
		// through a nested reference ({"a":{"value":"$ref:b"}} ->
		// {"b":{"value":"$ref:a"}}) closes through the parents.
		if ownerID >= 0 {
			g.edge(ownerID, kid)
		}

		switch {
		case depListKeys[k]:
			// Dependency lists bind the OWNING object, not the list key:
			// {"a":{"dependencies":["b"]}} is an edge a -> b.
			src := ownerID
			if src < 0 {
				src = kid
			}
			if arr, ok := val.([]interface{}); ok {
				for _, item := range arr {
					if name, ok := item.(string); ok {
						g.refEdge(src, name, local)
					}
				}
			}
		case refKeys[k]:
			src := ownerID
			if src < 0 {
				src = kid
			}
			if name, ok := val.(string); ok {
				g.refEdge(src, strings.TrimPrefix(name, refPrefix), local)
			}
		default:
			g.walkValue(val, kid, joinPath(path, k), local)
		}
	}
}

// walkValue handles a key's value: string references, arrays, and nested
// objects. src is the vertex of the key owning this value.
func (g *depGraph) walkValue(v interface{}, src int, path string, sc *scope) {
	switch t := v.(type) {
	case string:
		if name, ok := strings.CutPrefix(t, refPrefix); ok {
			g.refEdge(src, name, sc)
			return
		}
		// A bare string naming a key visible at an outer scope is an edge.
		if to, ok := sc.lookup(t); ok {
			g.edge(src, to)
		}
	case []interface{}:
		for _, item := range t {
			g.walkValue(item, src, path, sc)
		}
	case map[string]interface{}:
		g.walk(t, path, sc)
	}
}

// refEdge resolves a referenced name against the visible scopes, then the
// full vertex arena. Unresolvable references are ignored.
func (g *depGraph) refEdge(src int, name string, sc *scope) {
	if to, ok := sc.lookup(name); ok {
		g.edge(src, to)
		return
	}
	if to, ok := g.index[name]; ok {
		g.edge(src, to)
	}
}

func (g *depGraph) hasCycle() bool {
	if len(g.selfEdge) > 0 {
		return true
	}
	for _, scc := range g.tarjan() {
		if len(scc) > 1 {
			return true
		}
	}
	return false
}

// tarjan computes strongly connected components iteratively over the arena.
func (g *depGraph) tarjan() [][]int {
	n := len(g.paths)
	const unvisited = -1

	indices := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range indices {
		indices[i] = unvisited
	}

	var (
		counter int
		stack   []int
		sccs    [][]int
	)

	type frame struct {
		v    int
		edge int
	}

	for root := 0; root < n; root++ {
		if indices[root] != unvisited {
			continue
		}
		work := []frame{{v: root}}
		for len(work) > 0 {
			f := &work[len(work)-1]
			v := f.v
			if f.edge == 0 {
				indices[v] = counter
				lowlink[v] = counter
				counter++
				stack = append(stack, v)
				onStack[v] = true
			}
			advanced := false
			for f.edge < len(g.adj[v]) {
				w := g.adj[v][f.edge]
				f.edge++
				if indices[w] == unvisited {
					work = append(work, frame{v: w})
					advanced = true
					break
				}
				if onStack[w] && indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
			if advanced {
				continue
			}
			if lowlink[v] == indices[v] {
				var scc []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].v
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
		}
	}
	return sccs
}
