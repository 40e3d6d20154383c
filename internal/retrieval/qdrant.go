package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/qdrant/go-client/qdrant"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"

	payloadContentKey = "page_content"
)

// Config holds Qdrant connection settings.
type Config struct {
	Host   string `envconfig:"QDRANT_HOST" default:"localhost"`
	Port   int    `envconfig:"QDRANT_PORT" default:"6334"`
	APIKey string `envconfig:"QDRANT_API_KEY"`
	UseTLS bool   `envconfig:"QDRANT_USE_TLS" default:"false"`
}

func New(cfg Config) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return client, nil
}

// QdrantRetriever runs hybrid search over a Qdrant collection: a dense
// prefetch from the embedding model and a sparse prefetch from hashed term
// frequencies, fused with reciprocal rank fusion.
type QdrantRetriever struct {
	client     *qdrant.Client
	embedder   Embedder
	collection string
	topK       int
}

func NewQdrantRetriever(client *qdrant.Client, embedder Embedder, collection string, topK int) *QdrantRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &QdrantRetriever{
		client:     client,
		embedder:   embedder,
		collection: collection,
		topK:       topK,
	}
}

func (r *QdrantRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	options := retriever.GetCommonOptions(&retriever.Options{}, opts...)
	topK := r.topK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}

	dense, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dense query vector: %w", err)
	}

	limit := uint64(topK)
	prefetch := []*qdrant.PrefetchQuery{densePrefetch(dense, limit)}
	if indices, values := EncodeSparse(query); len(indices) > 0 {
		prefetch = append(prefetch, sparsePrefetch(indices, values, limit))
	}

	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Prefetch:       prefetch,
		Query:          qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	docs := make([]*schema.Document, 0, len(points))
	for _, p := range points {
		docs = append(docs, pointToDocument(p))
	}
	return docs, nil
}

func densePrefetch(vector []float32, limit uint64) *qdrant.PrefetchQuery {
	return &qdrant.PrefetchQuery{
		Query: qdrant.NewQueryDense(vector),
		Using: qdrant.PtrOf(denseVectorName),
		Limit: qdrant.PtrOf(limit),
	}
}

func sparsePrefetch(indices []uint32, values []float32, limit uint64) *qdrant.PrefetchQuery {
	return &qdrant.PrefetchQuery{
		Query: qdrant.NewQuerySparse(indices, values),
		Using: qdrant.PtrOf(sparseVectorName),
		Limit: qdrant.PtrOf(limit),
	}
}

func pointToDocument(p *qdrant.ScoredPoint) *schema.Document {
	doc := &schema.Document{
		ID:       pointID(p.GetId()),
		MetaData: map[string]any{},
	}
	for key, value := range p.GetPayload() {
		if key == payloadContentKey {
			doc.Content = value.GetStringValue()
			continue
		}
		doc.MetaData[key] = payloadValue(value)
	}
	doc.WithScore(float64(p.GetScore()))
	return doc
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func payloadValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.String()
	}
}

var _ retriever.Retriever = (*QdrantRetriever)(nil)
