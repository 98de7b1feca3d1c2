package knowledge

import (
	"context"
	"fmt"
	"log"
)

// Retriever routes queries to a language-specific collection and searches
// the index with the caller's score threshold
type Retriever struct {
	embedder     Embedder
	index        Index
	collectionID string // Indonesian FAQ collection
	collectionEN string // English FAQ collection
}

// NewRetriever creates a retriever over the given embedder and index
func NewRetriever(embedder Embedder, index Index, collectionID, collectionEN string) *Retriever {
	return &Retriever{
		embedder:     embedder,
		index:        index,
		collectionID: collectionID,
		collectionEN: collectionEN,
	}
}

// Collection returns the collection name serving the given language
func (r *Retriever) Collection(language string) string {
	if language == "en" {
		return r.collectionEN
	}
	return r.collectionID
}

// Search returns up to limit knowledge hits for the query, highest score
// first. Failures of the embedder or the index degrade to empty results;
// retrieval enhances generation but is not a hard dependency of it
func (r *Retriever) Search(ctx context.Context, query, language string, limit int, scoreThreshold float32, category string) []Hit {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[KNOWLEDGE]: Embedding failed, continuing without hits: %v", err)
		return nil
	}

	hits, err := r.index.Query(ctx, r.Collection(language), vector, limit, scoreThreshold, category)
	if err != nil {
		log.Printf("[KNOWLEDGE]: Index query failed, continuing without hits: %v", err)
		return nil
	}

	return hits
}

// AddFAQ indexes a single curated entry into the language's collection
func (r *Retriever) AddFAQ(ctx context.Context, language string, faq FAQ) error {
	return r.AddFAQs(ctx, language, []FAQ{faq})
}

// AddFAQs embeds and indexes a batch of curated entries
func (r *Retriever) AddFAQs(ctx context.Context, language string, faqs []FAQ) error {
	vectors := make([][]float32, 0, len(faqs))
	for _, faq := range faqs {
		vector, err := r.embedder.Embed(ctx, faq.Question)
		if err != nil {
			return fmt.Errorf("failed to embed %q: %w", faq.Question, err)
		}
		vectors = append(vectors, vector)
	}

	if err := r.index.Upsert(ctx, r.Collection(language), faqs, vectors); err != nil {
		return err
	}

	log.Printf("[KNOWLEDGE]: Indexed %d FAQs into %s", len(faqs), r.Collection(language))
	return nil
}
