package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"agriland/internal/model"

	"github.com/meilisearch/meilisearch-go"
)

// DefaultIndexName is the Meilisearch index holding land documents
const DefaultIndexName = "lands"

// MeiliIndex implements LandIndex on Meilisearch
type MeiliIndex struct {
	client *meilisearch.Client
	index  string
	logger *slog.Logger
}

// NewMeiliIndex creates a Meilisearch-backed land index
func NewMeiliIndex(host, apiKey, index string, logger *slog.Logger) *MeiliIndex {
	if index == "" {
		index = DefaultIndexName
	}
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	return &MeiliIndex{client: client, index: index, logger: logger}
}

// InitIndex creates the index and configures its attributes
func (s *MeiliIndex) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Creation is asynchronous; an existing index only fails the task, not the call
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}

	idx := s.client.Index(s.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"region",
		"commune",
		"city",
		"recommended_crops",
	}); err != nil {
		return fmt.Errorf("update searchable attributes: %w", err)
	}

	if _, err := idx.UpdateFilterableAttributes(&[]string{
		"type",
		"status",
		"region",
		"texture",
		"_geo",
	}); err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}

	if _, err := idx.UpdateSortableAttributes(&[]string{
		"price",
		"surface",
		"_geo",
	}); err != nil {
		return fmt.Errorf("update sortable attributes: %w", err)
	}
	return nil
}

// IndexLand adds or replaces a single land document
func (s *MeiliIndex) IndexLand(ctx context.Context, land *model.Land) error {
	_, err := s.client.Index(s.index).AddDocuments([]landDocument{newLandDocument(land)})
	return err
}

func (s *MeiliIndex) DeleteLand(ctx context.Context, id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// Reindex replaces the whole index content with lands
func (s *MeiliIndex) Reindex(ctx context.Context, lands []model.Land) error {
	idx := s.client.Index(s.index)
	if _, err := idx.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if len(lands) == 0 {
		return nil
	}
	docs := make([]landDocument, 0, len(lands))
	for i := range lands {
		docs = append(docs, newLandDocument(&lands[i]))
	}
	if _, err := idx.AddDocuments(docs); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	s.logger.Info("reindexed lands", "index", s.index, "count", len(docs))
	return nil
}

// Search runs a full-text query and returns the ids of the hits in rank order
func (s *MeiliIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = model.MaxPageLimit
	}
	res, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := hitMap["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
