package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/JanSetu/JS-Backend/internal/geo"
)

func init() {
	register(KindHDBSCAN, runHDBSCAN)
}

// runHDBSCAN is hierarchical density clustering over the haversine metric:
// build the mutual-reachability minimum spanning tree, condense the
// single-linkage hierarchy with MinClusterSize, then pick the cluster set
// maximizing stability. No fixed radius is involved; the hierarchy adapts
// to varying point density on its own.
//
// MinClusterSize doubles as the neighbor count for core distances, the
// same default the reference implementation applies when min_samples is
// not given separately.
func runHDBSCAN(points []Point, alg Algorithm) ([]int, []float64, error) {
	params, ok := alg.(HDBSCANParams)
	if !ok {
		return nil, nil, fmt.Errorf("%w: expected HDBSCAN parameters, got %s", ErrInvalidParams, alg.Kind())
	}

	n := len(points)
	m := params.MinClusterSize

	dist := pairwiseDistances(points)
	core := coreDistances(dist, m)
	edges := mutualReachabilityMST(dist, core)
	merges := singleLinkage(edges, n)
	clusters := condense(merges, n, m)
	selected := selectClusters(clusters)

	labels := make([]int, n)
	probs := make([]float64, n)
	for i := range labels {
		labels[i] = Noise
	}

	label := 0
	for ci := range clusters {
		if !selected[ci] {
			continue
		}
		members, lambdas := gatherPoints(clusters, ci)
		maxLambda := 0.0
		for _, l := range lambdas {
			if l > maxLambda {
				maxLambda = l
			}
		}
		for k, p := range members {
			labels[p] = label
			if maxLambda > 0 {
				probs[p] = math.Min(lambdas[k]/maxLambda, 1.0)
			} else {
				probs[p] = 1.0
			}
		}
		label++
	}

	return labels, probs, nil
}

func pairwiseDistances(points []Point) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Distance(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon, geo.Meters)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// coreDistances returns, for each point, the distance to its k-th nearest
// neighbor with the point itself counted first.
func coreDistances(dist [][]float64, k int) []float64 {
	n := len(dist)
	core := make([]float64, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(row, dist[i])
		sort.Float64s(row)
		idx := k - 1
		if idx >= n {
			idx = n - 1
		}
		core[i] = row[idx]
	}
	return core
}

type mstEdge struct {
	a, b   int
	weight float64
}

// mutualReachabilityMST runs Prim's algorithm over the implicit complete
// graph weighted by max(core(a), core(b), d(a,b)). Ties resolve toward the
// lower vertex index so repeated runs produce identical trees.
func mutualReachabilityMST(dist [][]float64, core []float64) []mstEdge {
	n := len(dist)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	inTree[0] = true
	for j := 1; j < n; j++ {
		best[j] = mutualReach(dist, core, 0, j)
		from[j] = 0
	}

	edges := make([]mstEdge, 0, n-1)
	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if next == -1 || best[j] < best[next] {
				next = j
			}
		}
		edges = append(edges, mstEdge{a: from[next], b: next, weight: best[next]})
		inTree[next] = true
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if w := mutualReach(dist, core, next, j); w < best[j] {
				best[j] = w
				from[j] = next
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].weight != edges[j].weight {
			return edges[i].weight < edges[j].weight
		}
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})
	return edges
}

func mutualReach(dist [][]float64, core []float64, i, j int) float64 {
	w := dist[i][j]
	if core[i] > w {
		w = core[i]
	}
	if core[j] > w {
		w = core[j]
	}
	return w
}

// slMerge is one node of the single-linkage dendrogram. Leaves are point
// indices [0,n); merge t creates node n+t joining left and right at dist.
type slMerge struct {
	left, right int
	dist        float64
	size        int
}

func singleLinkage(edges []mstEdge, n int) []slMerge {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	var find func(x int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	merges := make([]slMerge, 0, n-1)
	nodeSize := make([]int, 2*n-1)
	for i := 0; i < n; i++ {
		nodeSize[i] = 1
	}
	for t, e := range edges {
		ra, rb := find(e.a), find(e.b)
		id := n + t
		merges = append(merges, slMerge{
			left:  ra,
			right: rb,
			dist:  e.weight,
			size:  nodeSize[ra] + nodeSize[rb],
		})
		nodeSize[id] = nodeSize[ra] + nodeSize[rb]
		parent[ra] = id
		parent[rb] = id
	}
	return merges
}

// condCluster is a node of the condensed tree: the points that drip out of
// it as density drops, the lambda at which each leaves, and any child
// clusters created when the node splits into two viable halves.
type condCluster struct {
	parent       int
	birthLambda  float64
	points       []int
	pointLambdas []float64
	children     []int
	childLambda  float64
	size         int
}

// condense walks the dendrogram top-down. A split where both halves hold at
// least minClusterSize points creates two child clusters; a smaller half
// just sheds its points at the split's lambda while the cluster itself
// carries on down the larger half.
func condense(merges []slMerge, n, minClusterSize int) []condCluster {
	if len(merges) == 0 {
		return nil
	}
	root := n + len(merges) - 1

	clusters := []condCluster{{parent: -1, birthLambda: 0, size: n}}

	type frame struct {
		node    int
		cluster int
	}
	stack := []frame{{node: root, cluster: 0}}

	leafPoints := func(node int) []int {
		var out []int
		walk := []int{node}
		for len(walk) > 0 {
			nd := walk[len(walk)-1]
			walk = walk[:len(walk)-1]
			if nd < n {
				out = append(out, nd)
				continue
			}
			m := merges[nd-n]
			walk = append(walk, m.left, m.right)
		}
		return out
	}
	nodeCount := func(node int) int {
		if node < n {
			return 1
		}
		return merges[node-n].size
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := f.node
		ci := f.cluster
		for node >= n {
			mg := merges[node-n]
			lambda := splitLambda(mg.dist)
			szL, szR := nodeCount(mg.left), nodeCount(mg.right)

			if szL >= minClusterSize && szR >= minClusterSize {
				clusters[ci].childLambda = lambda
				for _, child := range []int{mg.left, mg.right} {
					clusters = append(clusters, condCluster{
						parent:      ci,
						birthLambda: lambda,
						size:        nodeCount(child),
					})
					id := len(clusters) - 1
					clusters[ci].children = append(clusters[ci].children, id)
					stack = append(stack, frame{node: child, cluster: id})
				}
				break
			}

			if szL < minClusterSize && szR < minClusterSize {
				for _, p := range leafPoints(mg.left) {
					clusters[ci].points = append(clusters[ci].points, p)
					clusters[ci].pointLambdas = append(clusters[ci].pointLambdas, lambda)
				}
				for _, p := range leafPoints(mg.right) {
					clusters[ci].points = append(clusters[ci].points, p)
					clusters[ci].pointLambdas = append(clusters[ci].pointLambdas, lambda)
				}
				break
			}

			small, large := mg.left, mg.right
			if szL >= minClusterSize {
				small, large = mg.right, mg.left
			}
			for _, p := range leafPoints(small) {
				clusters[ci].points = append(clusters[ci].points, p)
				clusters[ci].pointLambdas = append(clusters[ci].pointLambdas, lambda)
			}
			node = large
		}
	}

	return clusters
}

// splitLambda converts a merge distance into density lambda = 1/d, with a
// floor so coincident points cannot produce an infinite value.
func splitLambda(d float64) float64 {
	const minDist = 1e-10
	if d < minDist {
		d = minDist
	}
	return 1 / d
}

// selectClusters applies excess-of-mass selection: a cluster is kept when
// its own stability beats the combined stability of its descendants. The
// root is never selectable, matching the convention that a single
// all-points cluster is not a useful answer.
func selectClusters(clusters []condCluster) []bool {
	k := len(clusters)
	selected := make([]bool, k)
	if k == 0 {
		return selected
	}

	stability := make([]float64, k)
	for i, c := range clusters {
		s := 0.0
		for _, l := range c.pointLambdas {
			s += l - c.birthLambda
		}
		for _, child := range c.children {
			s += float64(clusters[child].size) * (c.childLambda - c.birthLambda)
		}
		stability[i] = s
	}

	var unselect func(ci int)
	unselect = func(ci int) {
		selected[ci] = false
		for _, child := range clusters[ci].children {
			unselect(child)
		}
	}

	sHat := make([]float64, k)
	// Children always carry a higher index than their parent, so a single
	// reverse pass visits every subtree bottom-up.
	for i := k - 1; i >= 0; i-- {
		c := clusters[i]
		if len(c.children) == 0 {
			sHat[i] = stability[i]
			selected[i] = i != 0
			continue
		}
		childSum := 0.0
		for _, child := range c.children {
			childSum += sHat[child]
		}
		if i != 0 && stability[i] >= childSum {
			sHat[i] = stability[i]
			selected[i] = true
			for _, child := range c.children {
				unselect(child)
			}
		} else {
			sHat[i] = childSum
		}
	}

	return selected
}

// gatherPoints collects every point under a condensed cluster, with the
// lambda at which each one left the hierarchy.
func gatherPoints(clusters []condCluster, ci int) ([]int, []float64) {
	var points []int
	var lambdas []float64
	walk := []int{ci}
	for len(walk) > 0 {
		id := walk[len(walk)-1]
		walk = walk[:len(walk)-1]
		points = append(points, clusters[id].points...)
		lambdas = append(lambdas, clusters[id].pointLambdas...)
		walk = append(walk, clusters[id].children...)
	}
	return points, lambdas
}
