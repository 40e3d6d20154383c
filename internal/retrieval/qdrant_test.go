package retrieval

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDensePrefetch(t *testing.T) {
	p := densePrefetch([]float32{0.1, 0.2, 0.3}, 5)

	require.NotNil(t, p.Using)
	assert.Equal(t, denseVectorName, *p.Using)
	require.NotNil(t, p.Limit)
	assert.Equal(t, uint64(5), *p.Limit)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, p.Query.GetNearest().GetDense().GetData())
}

func TestSparsePrefetchKeepsIndicesAndValuesAligned(t *testing.T) {
	indices := []uint32{3, 17, 42}
	values := []float32{1, 2, 1}

	p := sparsePrefetch(indices, values, 5)

	require.NotNil(t, p.Using)
	assert.Equal(t, sparseVectorName, *p.Using)

	sparse := p.Query.GetNearest().GetSparse()
	require.NotNil(t, sparse)
	assert.Equal(t, indices, sparse.GetIndices())
	assert.Equal(t, values, sparse.GetValues())
}

func TestSparsePrefetchFromEncoder(t *testing.T) {
	indices, values := EncodeSparse("pricing pricing plans")
	require.Len(t, indices, 2)

	sparse := sparsePrefetch(indices, values, 5).Query.GetNearest().GetSparse()
	assert.Equal(t, indices, sparse.GetIndices())
	assert.Equal(t, values, sparse.GetValues())
}

func TestPointToDocument(t *testing.T) {
	p := &qdrant.ScoredPoint{
		Id:    qdrant.NewIDUUID("11111111-2222-3333-4444-555555555555"),
		Score: 0.9,
		Payload: map[string]*qdrant.Value{
			"page_content": qdrant.NewValueString("passage text"),
			"source":       qdrant.NewValueString("handbook.pdf"),
			"page":         qdrant.NewValueInt(3),
		},
	}

	doc := pointToDocument(p)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", doc.ID)
	assert.Equal(t, "passage text", doc.Content)
	assert.Equal(t, "handbook.pdf", doc.MetaData["source"])
	assert.Equal(t, int64(3), doc.MetaData["page"])
	assert.InDelta(t, 0.9, doc.Score(), 1e-6)
}
