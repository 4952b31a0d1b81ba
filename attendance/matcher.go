package attendance

import (
	"fmt"
	"math"
)

// EnrolledEmbedding is one identity's reference vector as loaded from the
// embedding store, in enrollment order.
type EnrolledEmbedding struct {
	EmployeeID uint
	EmpCode    string
	Name       string
	Vector     []float32
}

// EmbeddingSource lists every enrolled reference embedding. Implemented by
// the employee repository.
type EmbeddingSource interface {
	ListEmbeddings() ([]EnrolledEmbedding, error)
}

// Match is a successful identification: the closest enrolled identity and
// its distance to the probe.
type Match struct {
	EmployeeID uint    `json:"employee_id"`
	EmpCode    string  `json:"emp_code"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
}

// Matcher identifies a probe vector against the enrolled references by
// Euclidean distance. It only reads the embedding store and keeps no state
// of its own; the optional ANN index is a drop-in acceleration for large
// enrollments.
type Matcher struct {
	source EmbeddingSource

	// index, when set and warm, replaces the linear scan once the
	// enrollment reaches minIndexSize entries
	index        *Index
	minIndexSize int
}

// NewMatcher creates a matcher over the given embedding source.
func NewMatcher(source EmbeddingSource) *Matcher {
	return &Matcher{source: source}
}

// UseIndex attaches an ANN index consulted for enrollments of at least
// minEnrollment identities. The index is rebuilt externally (enrollment
// worker) and may lag the store; a stale index falls back to the scan.
func (m *Matcher) UseIndex(index *Index, minEnrollment int) {
	m.index = index
	m.minIndexSize = minEnrollment
}

// Match finds the enrolled identity closest to probe. It returns nil with no
// error when nothing is enrolled or when the minimum distance is not
// strictly below tolerance. Ties keep the first-enrolled identity.
func (m *Matcher) Match(probe []float32, tolerance float64) (*Match, error) {
	if len(probe) == 0 {
		return nil, fmt.Errorf("matcher: empty probe vector")
	}

	entries, err := m.source.ListEmbeddings()
	if err != nil {
		return nil, fmt.Errorf("matcher: failed to list enrolled embeddings: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var best *Match
	if m.index != nil && len(entries) >= m.minIndexSize && m.index.Count() == len(entries) {
		best = m.index.Nearest(probe)
	}
	if best == nil {
		best = nearestLinear(entries, probe)
	}
	if best == nil || best.Distance >= tolerance {
		return nil, nil
	}
	return best, nil
}

// nearestLinear scans every entry and keeps the strict minimum, so the
// first-enrolled identity wins exact ties.
func nearestLinear(entries []EnrolledEmbedding, probe []float32) *Match {
	var best *Match
	for i := range entries {
		entry := &entries[i]
		if len(entry.Vector) != len(probe) {
			continue
		}
		dist := EuclideanDistance(probe, entry.Vector)
		if best == nil || dist < best.Distance {
			best = &Match{
				EmployeeID: entry.EmployeeID,
				EmpCode:    entry.EmpCode,
				Name:       entry.Name,
				Distance:   dist,
			}
		}
	}
	return best
}

// EuclideanDistance computes the L2 distance between two vectors, the metric
// the embedding model was trained against.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
