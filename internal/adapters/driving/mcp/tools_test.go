package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer", func(t *testing.T) {
		mockQuery := &mockQueryService{
			resp: &driving.QueryResponse{
				Identity:     "id-1",
				Query:        "Are there outages?",
				Answer:       "Maintenance on Creole Trail next week.",
				AlertEnabled: true,
				State:        domain.StateResponded,
			},
		}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "Alert me about outages", User: "alice"})

		require.NoError(t, err)
		assert.Equal(t, "Maintenance on Creole Trail next week.", output.Answer)
		assert.Equal(t, "id-1", output.Identity)
		assert.True(t, output.AlertEnabled)
		assert.Equal(t, "responded", output.State)
		assert.Equal(t, "alice", mockQuery.lastReq.User)
		assert.False(t, mockQuery.subscribed)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mockQuery := &mockQueryService{err: errors.New("ask failed")}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Query: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ask failed")
	})
}

func TestServer_handleSubscribe(t *testing.T) {
	mockQuery := &mockQueryService{
		resp: &driving.QueryResponse{Identity: "id-2", AlertEnabled: true, Registered: true, State: domain.StateResponded},
	}
	server, err := NewServer(&Ports{Query: mockQuery})
	require.NoError(t, err)

	_, output, err := server.handleSubscribe(context.Background(), nil, AskInput{Query: "Capacity changes?", User: "bob"})

	require.NoError(t, err)
	assert.True(t, mockQuery.subscribed)
	assert.Equal(t, "Capacity changes?", mockQuery.lastReq.Query)
	assert.Equal(t, "id-2", output.Identity)
	assert.True(t, output.AlertEnabled)
	assert.True(t, output.Registered)
}
