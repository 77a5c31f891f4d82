package catalogue

import (
	"slices"

	"github.com/Aman-CERP/railcat/internal/corpus"
)

type pointConnectionsBuilder struct {
	lines *shardedMap[corpus.Link, []corpus.Link]
	edges *shardedMap[corpus.Link, map[corpus.Link]struct{}]
}

func newPointConnectionsBuilder() *pointConnectionsBuilder {
	return &pointConnectionsBuilder{
		lines: newShardedMap[corpus.Link, []corpus.Link](),
		edges: newShardedMap[corpus.Link, map[corpus.Link]struct{}](),
	}
}

func (b *pointConnectionsBuilder) insert(doc *corpus.Document, link corpus.Link) {
	if line, ok := doc.AsLine(); ok {
		for _, point := range line.Points {
			if point.Kind() == corpus.KindPoint {
				b.lines.update(point, appendLink(link))
			}
		}
		return
	}

	if doc.Kind != corpus.KindPoint {
		return
	}
	for _, ev := range doc.Events {
		for _, other := range ev.Connection {
			if other == link || other.Kind() != corpus.KindPoint {
				continue
			}
			b.edges.updatePair(link, other, addToSet(other), addToSet(link))
		}
	}
}

// finalize gives every connected point the lines of its direct neighbours.
// Neighbour buckets are read as they were after the insert pass, so a line
// travels exactly one hop regardless of iteration order. Buckets keep
// repeated lines: a point and its neighbour on the same line list it twice.
func (b *pointConnectionsBuilder) finalize(store corpus.Store) *PointConnections {
	own := b.lines.drain()
	edges := b.edges.drain()
	present := func(l corpus.Link) bool { return store.Resolve(l) != nil }

	pc := &PointConnections{
		connections: make(map[corpus.Link][]corpus.Link, len(edges)),
		lines:       make(map[corpus.Link][]corpus.Link, len(own)),
	}

	for point, set := range edges {
		if !present(point) {
			continue
		}
		neighbours := make([]corpus.Link, 0, len(set))
		for n := range set {
			if present(n) {
				neighbours = append(neighbours, n)
			}
		}
		if len(neighbours) == 0 {
			continue
		}
		sortByKey(store, neighbours)
		pc.connections[point] = neighbours
	}

	for point, lines := range own {
		pc.lines[point] = slices.Clone(lines)
	}
	for point, neighbours := range pc.connections {
		for _, n := range neighbours {
			if len(own[n]) > 0 {
				pc.lines[point] = append(pc.lines[point], own[n]...)
			}
		}
	}

	for _, lines := range pc.lines {
		sortByKey(store, lines)
	}
	return pc
}

// PointConnections is the undirected connection graph between points and
// the lines serving each point.
type PointConnections struct {
	connections map[corpus.Link][]corpus.Link
	lines       map[corpus.Link][]corpus.Link
}

// Connections returns the points directly connected to point, sorted by
// key. It reports false if the point has no recorded connections.
func (pc *PointConnections) Connections(point corpus.Link) ([]corpus.Link, bool) {
	c, ok := pc.connections[point]
	return c, ok
}

// IsConnected reports whether a and b are directly connected.
func (pc *PointConnections) IsConnected(a, b corpus.Link) bool {
	return slices.Contains(pc.connections[a], b)
}

// Lines returns the lines serving point, including those of its direct
// neighbours, sorted by key. A line reached more than once is repeated.
func (pc *PointConnections) Lines(point corpus.Link) []corpus.Link {
	return pc.lines[point]
}

// IsJunction reports whether Lines holds more than one entry.
func (pc *PointConnections) IsJunction(point corpus.Link) bool {
	return len(pc.lines[point]) > 1
}

// ConnectedPoints returns every point with at least one connection.
func (pc *PointConnections) ConnectedPoints() []corpus.Link {
	return sortedKeys(pc.connections)
}

// ServedPoints returns every point with at least one line.
func (pc *PointConnections) ServedPoints() []corpus.Link {
	return sortedKeys(pc.lines)
}
