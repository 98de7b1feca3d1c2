package knowledge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements Index on a Qdrant vector database
type QdrantIndex struct {
	client *qdrant.Client
}

// QdrantConfig holds Qdrant connection configuration
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// NewQdrantIndex connects to Qdrant
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client}, nil
}

// Query implements Index. Results come back highest score first; the score
// threshold is applied by the index itself, not re-filtered here
func (q *QdrantIndex) Query(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32, category string) ([]Hit, error) {
	var filter *qdrant.Filter
	if category != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("category", category)},
		}
	}

	limitUint64 := uint64(limit)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		ScoreThreshold: &scoreThreshold,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	hits := make([]Hit, 0, len(points))
	for _, point := range points {
		hit := Hit{Score: point.Score}
		for key, value := range point.Payload {
			switch key {
			case "question":
				hit.Question = value.GetStringValue()
			case "answer":
				hit.Answer = value.GetStringValue()
			case "category":
				hit.Category = value.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// EnsureCollection creates the collection if it does not exist yet
func (q *QdrantIndex) EnsureCollection(ctx context.Context, collection string, dimension uint64) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", collection, err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", collection, err)
	}
	return nil
}

// Upsert implements Index. faqs and vectors must be parallel slices
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, faqs []FAQ, vectors [][]float32) error {
	if len(faqs) != len(vectors) {
		return fmt.Errorf("got %d faqs but %d vectors", len(faqs), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(faqs))
	for i, faq := range faqs {
		category := faq.Category
		if category == "" {
			category = "general"
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"question": faq.Question,
				"answer":   faq.Answer,
				"category": category,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Close releases the underlying grpc connection
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
