package attendance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingSource struct {
	entries []EnrolledEmbedding
	err     error
}

func (f *fakeEmbeddingSource) ListEmbeddings() ([]EnrolledEmbedding, error) {
	return f.entries, f.err
}

// unitVector returns a 128-d vector with a single 1.0 at the given axis,
// already L2-normalized like real embeddings.
func unitVector(axis int) []float32 {
	v := make([]float32, 128)
	v[axis] = 1
	return v
}

func TestMatcherMatch(t *testing.T) {
	source := &fakeEmbeddingSource{entries: []EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: unitVector(0)},
		{EmployeeID: 2, EmpCode: "E002", Name: "Ben", Vector: unitVector(1)},
	}}
	m := NewMatcher(source)

	t.Run("closest identity wins", func(t *testing.T) {
		probe := unitVector(1)
		probe[1] = 0.9
		probe[2] = 0.1

		match, err := m.Match(probe, 0.45)
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, uint(2), match.EmployeeID)
		assert.Less(t, match.Distance, 0.45)
	})

	t.Run("distance at tolerance is rejected", func(t *testing.T) {
		// a probe exactly tolerance away from its nearest reference;
		// 0.5 is exactly representable so no rounding slips it below
		probe := unitVector(0)
		probe[2] = 0.5

		match, err := m.Match(probe, 0.5)
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("far probe is unknown", func(t *testing.T) {
		match, err := m.Match(unitVector(5), 0.45)
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("empty probe errors", func(t *testing.T) {
		_, err := m.Match(nil, 0.45)
		assert.Error(t, err)
	})
}

func TestMatcherEmptyEnrollment(t *testing.T) {
	m := NewMatcher(&fakeEmbeddingSource{})

	match, err := m.Match(unitVector(0), 0.45)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatcherSourceError(t *testing.T) {
	m := NewMatcher(&fakeEmbeddingSource{err: errors.New("db closed")})

	_, err := m.Match(unitVector(0), 0.45)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db closed")
}

func TestMatcherTieKeepsFirstEnrolled(t *testing.T) {
	// two identities enrolled with identical vectors; the probe is
	// equidistant from both
	shared := unitVector(3)
	source := &fakeEmbeddingSource{entries: []EnrolledEmbedding{
		{EmployeeID: 10, EmpCode: "E010", Name: "First", Vector: shared},
		{EmployeeID: 11, EmpCode: "E011", Name: "Second", Vector: shared},
	}}
	m := NewMatcher(source)

	match, err := m.Match(unitVector(3), 0.45)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(10), match.EmployeeID)
}

func TestMatcherSkipsMismatchedDimensions(t *testing.T) {
	source := &fakeEmbeddingSource{entries: []EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Short", Vector: []float32{1, 0}},
		{EmployeeID: 2, EmpCode: "E002", Name: "Full", Vector: unitVector(0)},
	}}
	m := NewMatcher(source)

	match, err := m.Match(unitVector(0), 0.45)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(2), match.EmployeeID)
}

func TestMatcherUsesIndexWhenWarm(t *testing.T) {
	entries := []EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: unitVector(0)},
		{EmployeeID: 2, EmpCode: "E002", Name: "Ben", Vector: unitVector(1)},
		{EmployeeID: 3, EmpCode: "E003", Name: "Cam", Vector: unitVector(2)},
	}
	m := NewMatcher(&fakeEmbeddingSource{entries: entries})

	index := NewIndex()
	index.Rebuild(entries)
	m.UseIndex(index, 2)

	match, err := m.Match(unitVector(2), 0.45)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(3), match.EmployeeID)
	assert.InDelta(t, 0, match.Distance, 1e-6)
}

func TestMatcherStaleIndexFallsBack(t *testing.T) {
	entries := []EnrolledEmbedding{
		{EmployeeID: 1, EmpCode: "E001", Name: "Ada", Vector: unitVector(0)},
		{EmployeeID: 2, EmpCode: "E002", Name: "Ben", Vector: unitVector(1)},
	}
	source := &fakeEmbeddingSource{entries: entries}
	m := NewMatcher(source)

	index := NewIndex()
	index.Rebuild(entries[:1]) // missing the newest enrollment
	m.UseIndex(index, 1)

	match, err := m.Match(unitVector(1), 0.45)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(2), match.EmployeeID)
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, math.Sqrt2, EuclideanDistance(unitVector(0), unitVector(1)), 1e-9)
	assert.InDelta(t, 0, EuclideanDistance(unitVector(0), unitVector(0)), 1e-9)
	assert.Equal(t, math.MaxFloat64, EuclideanDistance([]float32{1}, []float32{1, 2}))
	assert.Equal(t, math.MaxFloat64, EuclideanDistance(nil, nil))
}
