package routegraph

import (
	"container/heap"
	"math"
)

// pqItem is one entry in the Dijkstra frontier.
type pqItem struct {
	nodeID string
	dist   float64
	index  int
}

// minHeap is a container/heap.Interface priority queue keyed by
// tentative distance (spec.md §4.8 step 3).
type minHeap []*pqItem

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *minHeap) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// shortestPath runs Dijkstra from start to end over g's adjacency,
// returning the node-ID path in order (including both endpoints) and
// whether end was reached at all.
func (g *Graph) shortestPath(start, end string) ([]string, bool) {
	if start == end {
		return []string{start}, true
	}

	dist := make(map[string]float64, len(g.nodes))
	prev := make(map[string]string, len(g.nodes))
	visited := make(map[string]bool, len(g.nodes))

	for id := range g.nodes {
		dist[id] = math.Inf(1)
	}
	dist[start] = 0

	h := &minHeap{{nodeID: start, dist: 0}}
	heap.Init(h)

	for h.Len() > 0 {
		cur := heap.Pop(h).(*pqItem)
		if visited[cur.nodeID] {
			continue
		}
		visited[cur.nodeID] = true

		if cur.nodeID == end {
			break
		}

		for _, e := range g.adjacent[cur.nodeID] {
			if visited[e.to] {
				continue
			}
			nd := dist[cur.nodeID] + e.weight
			if nd < dist[e.to] {
				dist[e.to] = nd
				prev[e.to] = cur.nodeID
				heap.Push(h, &pqItem{nodeID: e.to, dist: nd})
			}
		}
	}

	if !visited[end] {
		return nil, false
	}

	path := []string{end}
	for cur := end; cur != start; {
		p, ok := prev[cur]
		if !ok {
			return nil, false
		}
		path = append(path, p)
		cur = p
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
