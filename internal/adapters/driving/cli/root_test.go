package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/config"
	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	asked      []driving.QueryRequest
	subscribed []driving.QueryRequest
	standing   []domain.StandingQuery
	err        error
	degraded   bool
}

func (m *mockQueryService) Ask(_ context.Context, req driving.QueryRequest) (*driving.QueryResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.asked = append(m.asked, req)
	return &driving.QueryResponse{
		Query:  req.Query,
		Answer: "Pipeline X is operating at 10% capacity.",
		State:  domain.StateResponded,
	}, nil
}

func (m *mockQueryService) Subscribe(_ context.Context, query, user string) (*driving.QueryResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.subscribed = append(m.subscribed, driving.QueryRequest{Query: query, User: user})
	if m.degraded {
		return &driving.QueryResponse{
			Identity:     "id-" + user,
			Query:        query,
			Answer:       "Sorry, I could not generate a response right now.",
			AlertEnabled: true,
			State:        domain.StateFailed,
		}, nil
	}
	return &driving.QueryResponse{
		Identity:     "id-" + user,
		Query:        query,
		Answer:       "No outages are scheduled.",
		AlertEnabled: true,
		Registered:   true,
		State:        domain.StateResponded,
	}, nil
}

func (m *mockQueryService) StandingQueries(_ context.Context) ([]domain.StandingQuery, error) {
	return m.standing, m.err
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

// fakeEngine records how commands drive the engine.
type fakeEngine struct {
	query   *mockQueryService
	ingest  *mockIngestService
	syncErr error
	syncs   int
	closed  bool
}

func (f *fakeEngine) Query() driving.QueryService   { return f.query }
func (f *fakeEngine) Ingest() driving.IngestService { return f.ingest }
func (f *fakeEngine) MetricsHandler() http.Handler  { return http.NotFoundHandler() }
func (f *fakeEngine) Run(ctx context.Context) error { <-ctx.Done(); return nil }
func (f *fakeEngine) Close() error                  { f.closed = true; return nil }

func (f *fakeEngine) Sync(_ context.Context) error {
	f.syncs++
	return f.syncErr
}

// setupTestEngine swaps openEngine for a fake and provides credentials.
func setupTestEngine(t *testing.T) *fakeEngine {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SLACK_ALERT_CHANNEL_ID", "C-ALERTS")
	t.Setenv("SLACK_ALERT_TOKEN", "xoxb-test")

	fake := &fakeEngine{query: &mockQueryService{}, ingest: &mockIngestService{}}
	oldOpen := openEngine
	openEngine = func(_ context.Context, _ *config.Config) (engine, error) {
		return fake, nil
	}

	t.Cleanup(func() {
		openEngine = oldOpen
		askUser, askJSON = "", false
		subscribeUser, subscribeDefaults, subscribeServer = "", false, ""
		alertsJSON = false
	})
	return fake
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "noticealert", rootCmd.Use)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"serve", "ask", "subscribe", "alerts", "index", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, config.DefaultFile, flag.DefValue)

	flag = rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestStartEngine_RequiresCredentials(t *testing.T) {
	fake := setupTestEngine(t)
	t.Setenv("SLACK_ALERT_TOKEN", "")

	_, err := execute(t, "index")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, fake.syncs)
}

func TestStartSynced_SyncFailureClosesEngine(t *testing.T) {
	fake := setupTestEngine(t)
	fake.syncErr = errors.New("disk gone")

	_, err := execute(t, "index")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.True(t, fake.closed)
}
