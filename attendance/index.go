package attendance

import (
	"sync"

	"github.com/coder/hnsw"
)

// hnswMaxNeighbors is the graph connectivity parameter (M).
const hnswMaxNeighbors = 16

// Index is an approximate-nearest-neighbor index over the enrolled
// embeddings, useful once the enrollment outgrows the linear scan. It is
// rebuilt wholesale by the enrollment worker after enrollment changes.
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint]
	entries map[uint]EnrolledEmbedding
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[uint]EnrolledEmbedding),
	}
}

// Rebuild replaces the graph with one built from the given entries.
func (ix *Index) Rebuild(entries []EnrolledEmbedding) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(entries) == 0 {
		ix.graph = nil
		ix.entries = make(map[uint]EnrolledEmbedding)
		return
	}

	g := hnsw.NewGraph[uint]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	ix.entries = make(map[uint]EnrolledEmbedding, len(entries))
	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(entry.EmployeeID, entry.Vector))
		ix.entries[entry.EmployeeID] = entry
	}

	ix.graph = g
}

// Nearest returns the closest indexed identity to the query, or nil when the
// index is empty. The distance is recomputed exactly from the stored vector
// so both matcher paths agree.
func (ix *Index) Nearest(query []float32) *Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil {
		return nil
	}

	neighbors := ix.graph.Search(query, 1)
	if len(neighbors) == 0 {
		return nil
	}

	entry, ok := ix.entries[neighbors[0].Key]
	if !ok {
		return nil
	}
	return &Match{
		EmployeeID: entry.EmployeeID,
		EmpCode:    entry.EmpCode,
		Name:       entry.Name,
		Distance:   EuclideanDistance(query, entry.Vector),
	}
}

// Count returns the number of indexed identities.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
