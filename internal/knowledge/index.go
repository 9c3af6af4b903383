// Package knowledge maintains a Redis-backed inverted word index over help
// articles. The knowledge agent queries it for context before answering;
// ingestion is explicit, crawling is out of scope.
package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var tokenRegex = regexp.MustCompile(`[a-z0-9]+`)

// stopWords are common words excluded from indexing and queries.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"it": true, "that": true, "this": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "like": true,
}

// maxQueryTokens caps the number of index lookups per search.
const maxQueryTokens = 8

// Document is one help article in the index.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Index is the inverted word index over ingested documents.
type Index struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewIndex creates an index on an existing Redis client.
func NewIndex(client *redis.Client, logger zerolog.Logger) *Index {
	return &Index{client: client, logger: logger}
}

// docKey returns the hash key holding a document's fields.
func docKey(id string) string {
	return fmt.Sprintf("kb:doc:%s", id)
}

// wordKey returns the set key of document ids containing a word.
func wordKey(word string) string {
	return fmt.Sprintf("kb:words:%s", word)
}

// tokenize extracts deduplicated lowercase index terms from text.
func tokenize(text string) []string {
	words := tokenRegex.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool)
	result := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= 2 && !seen[w] && !stopWords[w] {
			seen[w] = true
			result = append(result, w)
		}
	}
	return result
}

// Ingest stores a document and indexes its title and content. An empty ID is
// replaced with a generated one; the assigned id is returned.
func (ix *Index) Ingest(ctx context.Context, doc Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	pipe := ix.client.Pipeline()
	pipe.HSet(ctx, docKey(doc.ID), map[string]any{
		"title":   doc.Title,
		"url":     doc.URL,
		"content": doc.Content,
	})
	for _, token := range tokenize(doc.Title + " " + doc.Content) {
		pipe.SAdd(ctx, wordKey(token), doc.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("indexing document %q: %w", doc.Title, err)
	}

	ix.logger.Debug().Str("doc_id", doc.ID).Str("title", doc.Title).Msg("indexed document")
	return doc.ID, nil
}

// Search returns up to limit documents ranked by the number of query tokens
// they contain. Ties break on document id for determinism.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	tokens := tokenize(query)
	if len(tokens) > maxQueryTokens {
		tokens = tokens[:maxQueryTokens]
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	hits := make(map[string]int)
	for _, token := range tokens {
		ids, err := ix.client.SMembers(ctx, wordKey(token)).Result()
		if err != nil {
			return nil, fmt.Errorf("searching token %q: %w", token, err)
		}
		for _, id := range ids {
			hits[id]++
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if hits[ids[i]] != hits[ids[j]] {
			return hits[ids[i]] > hits[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		fields, err := ix.client.HGetAll(ctx, docKey(id)).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		docs = append(docs, Document{
			ID:      id,
			Title:   fields["title"],
			URL:     fields["url"],
			Content: fields["content"],
		})
	}
	return docs, nil
}
