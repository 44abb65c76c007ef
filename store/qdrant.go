package store

import (
	"context"
	"fmt"
	"time"

	"github.com/codescout-dev/codescout/language"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore keeps documents in a Qdrant collection over gRPC.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimensions int
}

type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	APIKey     string
	UseTLS     bool
	Dimensions int
}

func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *QdrantStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Vector...),
			Payload: qdrant.NewValueMap(payloadFrom(doc)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

func payloadFrom(doc Document) map[string]any {
	payload := map[string]any{
		"text":         doc.Text,
		"type":         string(doc.Metadata.Type),
		"language":     doc.Metadata.Language,
		"project_path": doc.Metadata.ProjectPath,
		"project_name": doc.Metadata.ProjectName,
		"file":         doc.Metadata.File,
		"line":         int64(doc.Metadata.Line),
		"symbol":       doc.Metadata.Symbol,
	}
	for k, v := range doc.Metadata.Extra {
		payload["extra_"+k] = v
	}
	return payload
}

func documentFrom(id string, payload map[string]*qdrant.Value) Document {
	doc := Document{ID: id}
	doc.Text = payload["text"].GetStringValue()
	doc.Metadata = Metadata{
		Type:        DocType(payload["type"].GetStringValue()),
		Language:    language.Language(payload["language"].GetStringValue()),
		ProjectPath: payload["project_path"].GetStringValue(),
		ProjectName: payload["project_name"].GetStringValue(),
		File:        payload["file"].GetStringValue(),
		Line:        int(payload["line"].GetIntegerValue()),
		Symbol:      payload["symbol"].GetStringValue(),
	}
	for k, v := range payload {
		if len(k) > 6 && k[:6] == "extra_" {
			if doc.Metadata.Extra == nil {
				doc.Metadata.Extra = make(map[string]string)
			}
			doc.Metadata.Extra[k[6:]] = v.GetStringValue()
		}
	}
	return doc
}

func qdrantFilter(filter *Filter) *qdrant.Filter {
	if filter == nil {
		return nil
	}
	var must []*qdrant.Condition
	if filter.Type != "" {
		must = append(must, qdrant.NewMatch("type", string(filter.Type)))
	}
	if filter.Language != "" {
		must = append(must, qdrant.NewMatch("language", string(filter.Language)))
	}
	if filter.ProjectPath != "" {
		must = append(must, qdrant.NewMatch("project_path", filter.ProjectPath))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		Filter:         qdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, SearchResult{
			Document: documentFrom(p.GetId().GetUuid(), p.GetPayload()),
			Score:    p.GetScore(),
		})
	}
	return results, nil
}

func (s *QdrantStore) DeleteByProject(ctx context.Context, projectPath string) error {
	return s.deleteByFilter(ctx, &Filter{ProjectPath: projectPath})
}

func (s *QdrantStore) DeleteByType(ctx context.Context, t DocType) error {
	return s.deleteByFilter(ctx, &Filter{Type: t})
}

func (s *QdrantStore) deleteByFilter(ctx context.Context, filter *Filter) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(qdrantFilter(filter)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

func (s *QdrantStore) Count(ctx context.Context, filter *Filter) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         qdrantFilter(filter),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(count), nil
}

// Load is a no-op: the collection lives server-side.
func (s *QdrantStore) Load(ctx context.Context) error { return nil }

// Persist is a no-op: upserts are durable once acknowledged.
func (s *QdrantStore) Persist(ctx context.Context) error { return nil }

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByType: make(map[DocType]int), LastUpdated: time.Time{}}

	total, err := s.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats.TotalDocuments = total

	for _, t := range []DocType{TypeSymbol, TypeTest, TypeDoc} {
		n, err := s.Count(ctx, &Filter{Type: t})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			stats.ByType[t] = n
		}
	}
	return stats, nil
}
