package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	logx "github.com/agentic-rag/server/pkg/logger"
)

// DefaultTopK bounds knowledge-base retrieval when no explicit limit is
// configured.
const DefaultTopK = 5

// SearchTool queries the knowledge-base index for the passages most relevant
// to a query. No matches is a valid outcome and yields an empty slice, not
// an error.
type SearchTool struct {
	retriever retriever.Retriever
	topK      int
}

func NewSearchTool(r retriever.Retriever, topK int) *SearchTool {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &SearchTool{retriever: r, topK: topK}
}

func (t *SearchTool) Search(ctx context.Context, query string) ([]*schema.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	docs, err := t.retriever.Retrieve(ctx, query, retriever.WithTopK(t.topK))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	logx.Debug().Str("query", query).Int("results", len(docs)).Msg("Knowledge base searched")
	if docs == nil {
		docs = []*schema.Document{}
	}
	return docs, nil
}
