// Package qdrant backs the index-store contract with a Qdrant collection
// over gRPC. Search is unfiltered on purpose: the retrieval layer applies
// the tenant filter itself because Qdrant's payload-filter predicate proved
// unreliable for this schema.
package qdrant

import (
	"context"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"doc-chat-be/pkg/vectorstore"
)

const (
	payloadText         = "text"
	payloadTenantID     = "tenant_id"
	payloadSourceName   = "source_name"
	payloadContentType  = "content_type"
	payloadPage         = "page"
	payloadTotalPages   = "total_pages"
	payloadSectionIndex = "section_index"
)

type Config struct {
	Host       string
	Port       int
	Collection string
	Dimension  int
}

type Store struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
}

var _ vectorstore.Store = &Store{}

// NewStore connects to Qdrant and ensures the collection exists with a
// cosine-distance vector config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", addr, err)
	}

	s := &Store{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  cfg.Collection,
	}

	if err := s.ensureCollection(ctx, cfg.Dimension); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	collections, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, col := range collections.GetCollections() {
		if col.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrantclient.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrantclient.PointStruct{
			Id: uuidPointId(p.ID),
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: p.Vector},
				},
			},
			Payload: buildPayload(p),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}

	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search qdrant: %w", err)
	}

	hits := make([]vectorstore.SearchHit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		hits = append(hits, vectorstore.SearchHit{
			ID:       point.GetId().GetUuid(),
			Score:    point.GetScore(),
			Content:  point.GetPayload()[payloadText].GetStringValue(),
			Metadata: parsePayload(point.GetPayload()),
		})
	}
	return hits, nil
}

func (s *Store) Scroll(ctx context.Context, offset string, limit int) ([]vectorstore.ScrollItem, string, error) {
	if limit <= 0 {
		limit = 256
	}

	req := &qdrantclient.ScrollPoints{
		CollectionName: s.collection,
		Limit:          uint32Ptr(uint32(limit)),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if offset != "" {
		req.Offset = uuidPointId(offset)
	}

	resp, err := s.points.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("scroll qdrant: %w", err)
	}

	items := make([]vectorstore.ScrollItem, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		items = append(items, vectorstore.ScrollItem{
			ID:       point.GetId().GetUuid(),
			Metadata: parsePayload(point.GetPayload()),
		})
	}

	next := ""
	if nextOffset := resp.GetNextPageOffset(); nextOffset != nil {
		next = nextOffset.GetUuid()
	}
	return items, next, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIds := make([]*qdrantclient.PointId, len(ids))
	for i, id := range ids {
		pointIds[i] = uuidPointId(id)
	}

	wait := true
	_, err := s.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Points{
				Points: &qdrantclient.PointsIdsList{Ids: pointIds},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete %d points: %w", len(ids), err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func buildPayload(p vectorstore.Point) map[string]*qdrantclient.Value {
	payload := map[string]*qdrantclient.Value{
		payloadText:         stringValue(p.Content),
		payloadTenantID:     stringValue(p.Metadata.TenantID),
		payloadSourceName:   stringValue(p.Metadata.SourceName),
		payloadContentType:  stringValue(p.Metadata.ContentType),
		payloadSectionIndex: intValue(int64(p.Metadata.SectionIndex)),
	}
	if p.Metadata.Page > 0 {
		payload[payloadPage] = intValue(int64(p.Metadata.Page))
		payload[payloadTotalPages] = intValue(int64(p.Metadata.TotalPages))
	}
	return payload
}

func parsePayload(payload map[string]*qdrantclient.Value) vectorstore.ChunkMetadata {
	meta := vectorstore.ChunkMetadata{
		TenantID:     payload[payloadTenantID].GetStringValue(),
		SourceName:   payload[payloadSourceName].GetStringValue(),
		ContentType:  payload[payloadContentType].GetStringValue(),
		SectionIndex: -1,
	}
	if v, ok := payload[payloadSectionIndex]; ok {
		meta.SectionIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload[payloadPage]; ok {
		meta.Page = int(v.GetIntegerValue())
	}
	if v, ok := payload[payloadTotalPages]; ok {
		meta.TotalPages = int(v.GetIntegerValue())
	}
	return meta
}

func uuidPointId(id string) *qdrantclient.PointId {
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: id},
	}
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: n}}
}

func uint32Ptr(n uint32) *uint32 { return &n }
