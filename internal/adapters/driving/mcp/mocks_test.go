package mcp

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	resp       *driving.QueryResponse
	err        error
	standing   []domain.StandingQuery
	listErr    error
	lastReq    driving.QueryRequest
	subscribed bool
}

func (m *mockQueryService) Ask(_ context.Context, req driving.QueryRequest) (*driving.QueryResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockQueryService) Subscribe(_ context.Context, query, user string) (*driving.QueryResponse, error) {
	m.lastReq = driving.QueryRequest{Query: query, User: user}
	m.subscribed = true
	return m.resp, m.err
}

func (m *mockQueryService) StandingQueries(_ context.Context) ([]domain.StandingQuery, error) {
	return m.standing, m.listErr
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	status driving.IngestStatus
}

func (m *mockIngestService) Index(_ context.Context, raw *domain.RawDocument) (*driving.IndexResult, error) {
	return &driving.IndexResult{DocumentID: raw.ID}, nil
}

func (m *mockIngestService) Status() driving.IngestStatus {
	return m.status
}
