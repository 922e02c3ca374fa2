package stub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/backend/httpapi"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBackend(t *testing.T) (*httpapi.Client, *testClock, *httptest.Server) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	server := httptest.NewServer(New(Options{
		IngestDuration: 3 * time.Second,
		Now:            clock.Now,
	}).Handler())
	t.Cleanup(server.Close)

	return &httpapi.Client{BaseURL: server.URL, HTTPClient: server.Client()}, clock, server
}

func TestSeedsDefaultAgent(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)

	agents, err := client.ListAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, domain.DefaultAgentID, agents[0].ID)
	assert.Equal(t, "Default Agent", agents[0].Name)
	assert.Equal(t, "Not Configured", agents[0].FolderName)
}

func TestSaveAgentUpsertsAndResolvesFolderName(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, client.SaveAgent(ctx, domain.Agent{ID: "hr", Name: "HR", FolderID: "01HRPOLICIES1A1"}))
	require.NoError(t, client.SaveAgent(ctx, domain.Agent{ID: "hr", Name: "HR Policies", FolderID: "01HRPOLICIES1A1", FolderName: "Unknown"}))
	require.NoError(t, client.SaveAgent(ctx, domain.Agent{ID: "ghost", Name: "Ghost", FolderID: "missing"}))

	agents, err := client.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 3)
	assert.Equal(t, "HR Policies", agents[1].Name)
	assert.Equal(t, "Policies", agents[1].FolderName)
	assert.Equal(t, "Unknown", agents[2].FolderName)
}

func TestSaveAgentRequiresIDAndName(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)

	err := client.SaveAgent(context.Background(), domain.Agent{ID: "x"})
	require.Error(t, err)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestIngestionRejectsUnknownAgentAndMissingFolder(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)
	ctx := context.Background()

	_, err := client.StartIngestion(ctx, "nobody")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Agent not found", apiErr.Detail)

	_, err = client.StartIngestion(ctx, domain.DefaultAgentID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Agent has no target folder set", apiErr.Detail)
}

func TestIngestionProgressesToCompletedAndUnlocksChat(t *testing.T) {
	t.Parallel()

	client, clock, _ := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, client.SaveAgent(ctx, domain.Agent{ID: "hr", Name: "HR", FolderID: "01HRFOLDER7A2B"}))

	job, err := client.IngestionStatus(ctx, "hr")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionIdle, job.Status)
	assert.Equal(t, "No ingestion record", job.Message)

	_, err = client.Ask(ctx, "how many leave days?", "hr")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Index not found. Please ingest documents first.", apiErr.Detail)

	message, err := client.StartIngestion(ctx, "hr")
	require.NoError(t, err)
	assert.Equal(t, "Ingestion triggered for agent HR", message)

	job, err = client.IngestionStatus(ctx, "hr")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionProcessing, job.Status)
	assert.Equal(t, "Starting ingestion...", job.Message)

	clock.Advance(3 * time.Second)
	job, err = client.IngestionStatus(ctx, "hr")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionCompleted, job.Status)
	assert.Equal(t, "Ingestion complete", job.Message)

	answer, err := client.Ask(ctx, "how many days of paid leave?", "hr")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "20 days of paid leave")
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "downloads/leave-policy.docx", answer.Sources[0])
}

func TestReingestionKeepsExistingIndexReadable(t *testing.T) {
	t.Parallel()

	client, clock, _ := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, client.SaveAgent(ctx, domain.Agent{ID: "eng", Name: "Eng", FolderID: "01ENGFOLDER9C4D"}))

	_, err := client.StartIngestion(ctx, "eng")
	require.NoError(t, err)
	clock.Advance(5 * time.Second)
	_, err = client.StartIngestion(ctx, "eng")
	require.NoError(t, err)

	answer, err := client.Ask(ctx, "who acknowledges pages?", "eng")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "on-call engineer")
}

func TestIngestionFailsForUnknownFolder(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, client.SaveAgent(ctx, domain.Agent{ID: "ghost", Name: "Ghost", FolderID: "missing"}))

	_, err := client.StartIngestion(ctx, "ghost")
	require.NoError(t, err)

	job, err := client.IngestionStatus(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionFailed, job.Status)
	assert.Contains(t, job.Message, "missing")
}

func TestBrowseListsChildrenSortedByName(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)
	ctx := context.Background()

	root, err := client.ListFolders(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 3)
	assert.Equal(t, "Engineering", root[0].Name)
	assert.Equal(t, "Finance", root[1].Name)
	assert.Equal(t, "HR", root[2].Name)

	leaf, err := client.ListFolders(ctx, "01FINFOLDER3E6F")
	require.NoError(t, err)
	assert.Empty(t, leaf)

	_, err = client.ListFolders(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrBrowse)
}

func TestSettingsSaveReturnsResetMessage(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestBackend(t)
	ctx := context.Background()

	settings, err := client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	message, err := client.SaveSettings(ctx, domain.Settings{LLM: domain.LLMConfig{
		Provider:      domain.ProviderOllama,
		OllamaBaseURL: "http://gpu:11434",
		OllamaModel:   "mistral",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Settings saved and RAG chain reset", message)

	settings, err = client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mistral", settings.LLM.OllamaModel)
}

func TestServeFileAndRequestIDEcho(t *testing.T) {
	t.Parallel()

	_, _, server := newTestBackend(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/files/on-call.md", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(requestIDHeader))

	resp, err = server.Client().Get(server.URL + "/files/absent.txt")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestDeleteAgentRemovesIt(t *testing.T) {
	t.Parallel()

	client, _, server := newTestBackend(t)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/agents/default", nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	agents, err := client.ListAgents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, agents)
}

func TestAnswerWithoutMatchesSaysSo(t *testing.T) {
	t.Parallel()

	response := answer("quantum chromodynamics", SampleDrive().FilesUnder("root"))
	assert.True(t, strings.HasPrefix(response.Answer, "I don't know"))
	assert.Empty(t, response.Sources)
}
