package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	docs  []*schema.Document
	err   error
	query string
	topK  int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	f.query = query
	options := retriever.GetCommonOptions(&retriever.Options{}, opts...)
	if options.TopK != nil {
		f.topK = *options.TopK
	}
	return f.docs, f.err
}

func TestSearchReturnsDocuments(t *testing.T) {
	r := &fakeRetriever{docs: []*schema.Document{{ID: "1", Content: "passage"}}}
	tool := NewSearchTool(r, 3)

	docs, err := tool.Search(context.Background(), "  company history  ")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "passage", docs[0].Content)
	assert.Equal(t, "company history", r.query)
	assert.Equal(t, 3, r.topK)
}

func TestSearchEmptyQuery(t *testing.T) {
	tool := NewSearchTool(&fakeRetriever{}, 3)

	_, err := tool.Search(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSearchRetrieverError(t *testing.T) {
	r := &fakeRetriever{err: errors.New("qdrant unavailable")}
	tool := NewSearchTool(r, 3)

	_, err := tool.Search(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSearchNilResultBecomesEmptySlice(t *testing.T) {
	tool := NewSearchTool(&fakeRetriever{docs: nil}, 3)

	docs, err := tool.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestNewSearchToolDefaultsTopK(t *testing.T) {
	r := &fakeRetriever{}
	tool := NewSearchTool(r, 0)

	tool.Search(context.Background(), "query")
	assert.Equal(t, DefaultTopK, r.topK)
}
