package simplify

import (
	"github.com/gogpu/ridgemesh/internal/logging"
	"github.com/gogpu/ridgemesh/mesh"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

type neighbor struct {
	v, he int
}

// decimator holds the per-call state of Decimate.
type decimator struct {
	m       *mesh.Mesh
	eps     float64
	adj     [][]neighbor
	degree  []int
	visited []bool
	survive []bool
	seen    map[[2]int]struct{}
	pending []mesh.Edge
	chains  int
}

// Decimate removes degree-2 vertices that lie within epsilon of the
// polyline through their surviving chain neighbours.
//
// Chains run between vertices whose degree (distinct neighbours) is not 2.
// Isolated cycles of degree-2 vertices are broken at their first vertex.
// Non-degree-2 vertices always survive. Each new edge takes the type of the
// first original half-edge it replaces.
func Decimate(m *mesh.Mesh, epsilon float64) (*mesh.Mesh, error) {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	nv := len(m.Vertices)
	d := &decimator{
		m:       m,
		eps:     epsilon,
		adj:     make([][]neighbor, nv),
		degree:  make([]int, nv),
		visited: make([]bool, nv),
		survive: make([]bool, nv),
		seen:    make(map[[2]int]struct{}),
	}

	for i := range m.HalfEdges {
		o := m.HalfEdges[i].Origin
		d.adj[o] = append(d.adj[o], neighbor{v: m.Dest(i), he: i})
	}
	for v := range nv {
		uniq := make(map[int]struct{}, len(d.adj[v]))
		for _, n := range d.adj[v] {
			uniq[n.v] = struct{}{}
		}
		d.degree[v] = len(uniq)
		d.survive[v] = d.degree[v] != 2
	}

	d.openChains()
	d.cycles()

	for i := range m.HalfEdges {
		a, b := m.HalfEdges[i].Origin, m.Dest(i)
		if d.degree[a] != 2 && d.degree[b] != 2 {
			d.addEdge(a, b, m.HalfEdges[i].Type)
		}
	}

	remap := make([]int, nv)
	verts := make([]mesh.Vertex, 0, nv)
	for v := range nv {
		remap[v] = mesh.None
		if d.survive[v] {
			remap[v] = len(verts)
			vx := m.Vertices[v]
			vx.Edge = mesh.None
			verts = append(verts, vx)
		}
	}
	edges := remapEdges(d.pending, remap)

	log := logging.Stage("mesh_decimate")
	log.Debug("rdp", "epsilon", epsilon, "chains", d.chains, "removed_vertices", nv-len(verts))

	out, err := mesh.Build(verts, edges)
	if err != nil {
		return nil, err
	}
	log.Debug("result", "vertices", len(out.Vertices), "half_edges", len(out.HalfEdges))
	return out, nil
}

// openChains walks every chain that starts at a non-degree-2 vertex.
func (d *decimator) openChains() {
	for start := range d.adj {
		if d.degree[start] == 2 {
			continue
		}
		for _, n := range d.adj[start] {
			if d.degree[n.v] != 2 || d.visited[n.v] {
				continue
			}

			chain := []int{start}
			types := []mesh.EdgeType{d.m.HalfEdges[n.he].Type}
			prev, cur := start, n.v
			for d.degree[cur] == 2 && !d.visited[cur] {
				d.visited[cur] = true
				chain = append(chain, cur)
				next, ok := d.other(cur, prev)
				if !ok {
					types = append(types, types[len(types)-1])
					break
				}
				types = append(types, d.m.HalfEdges[next.he].Type)
				prev, cur = cur, next.v
			}
			chain = append(chain, cur)

			d.keepChain(chain, types)
		}
	}
}

// cycles walks the closed loops made only of degree-2 vertices.
func (d *decimator) cycles() {
	for v := range d.adj {
		if d.degree[v] != 2 || d.visited[v] {
			continue
		}

		var chain []int
		var types []mesh.EdgeType
		prev, cur := mesh.None, v
		for {
			d.visited[cur] = true
			chain = append(chain, cur)
			next, ok := d.other(cur, prev)
			if !ok {
				break
			}
			types = append(types, d.m.HalfEdges[next.he].Type)
			prev, cur = cur, next.v
			if cur == v {
				break
			}
		}
		for len(types) < len(chain) {
			types = append(types, types[len(types)-1])
		}

		if len(chain) < 4 {
			for _, c := range chain {
				d.survive[c] = true
			}
			chain = append(chain, chain[0])
			d.addChainEdges(chain, allTrue(len(chain)), types)
			continue
		}
		chain = append(chain, chain[0])
		d.keepChain(chain, types)
	}
}

// other returns the first neighbour of v that is not prev.
func (d *decimator) other(v, prev int) (neighbor, bool) {
	for _, n := range d.adj[v] {
		if n.v != prev {
			return n, true
		}
	}
	return neighbor{}, false
}

// keepChain runs RDP over chain, marks survivors and queues the edges
// between consecutive survivors. types[k] is the type of the original edge
// from chain[k] to chain[k+1].
func (d *decimator) keepChain(chain []int, types []mesh.EdgeType) {
	keep := d.rdp(chain)
	for i, k := range keep {
		if k {
			d.survive[chain[i]] = true
		}
	}
	d.addChainEdges(chain, keep, types)
	if len(chain) >= 3 {
		d.chains++
	}
}

// rdp returns which chain positions survive Douglas-Peucker with the
// decimator's epsilon. The first and last positions always survive.
func (d *decimator) rdp(chain []int) []bool {
	keep := make([]bool, len(chain))
	keep[0], keep[len(chain)-1] = true, true
	if len(chain) < 3 {
		return keep
	}

	ls := make(orb.LineString, len(chain))
	for i, v := range chain {
		p := d.m.Vertices[v].Pos
		ls[i] = orb.Point{p.X, p.Y}
	}
	kept, ok := simplify.DouglasPeucker(d.eps).Simplify(ls.Clone()).(orb.LineString)
	if !ok || len(kept) < 2 {
		return allTrue(len(chain))
	}

	// kept is a subsequence of ls; match its interior points in order.
	last := len(chain) - 1
	j := 1
	for _, p := range kept[1 : len(kept)-1] {
		for j < last && ls[j] != p {
			j++
		}
		if j < last {
			keep[j] = true
			j++
		}
	}
	return keep
}

// addChainEdges joins consecutive kept positions. Each edge takes the type
// of the original edge leaving its first endpoint.
func (d *decimator) addChainEdges(chain []int, keep []bool, types []mesh.EdgeType) {
	lastKept := -1
	for i, k := range keep {
		if !k {
			continue
		}
		if lastKept >= 0 {
			d.addEdge(chain[lastKept], chain[i], types[lastKept])
		}
		lastKept = i
	}
}

func (d *decimator) addEdge(a, b int, typ mesh.EdgeType) {
	if a == b {
		return
	}
	key := [2]int{min(a, b), max(a, b)}
	if _, dup := d.seen[key]; dup {
		return
	}
	d.seen[key] = struct{}{}
	d.pending = append(d.pending, mesh.Edge{V0: a, V1: b, Type: typ})
}

func allTrue(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}
