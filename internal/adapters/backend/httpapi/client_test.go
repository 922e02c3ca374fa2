package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		UserAgent:  "ra/test",
		Now:        func() time.Time { return time.UnixMilli(1700000000123) },
	}
}

func TestListAgentsSendsCacheBusterAndDecodes(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/agents", r.URL.Path)
		assert.Equal(t, "1700000000123", r.URL.Query().Get("t"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.Equal(t, "ra/test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"default","name":"Default Agent","folder_id":"","folder_name":"Not Configured"},
			{"id":"hr","name":"HR","folder_id":"f-hr","folder_name":"HR Docs","llm_config":{"provider":"ollama","ollama_base_url":"http://ollama:11434","ollama_model":"llama3"}}
		]`))
	})

	agents, err := client.ListAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, domain.AgentID("default"), agents[0].ID)
	assert.Nil(t, agents[0].LLM)
	require.NotNil(t, agents[1].LLM)
	assert.Equal(t, domain.ProviderOllama, agents[1].LLM.Provider)
	assert.Equal(t, "llama3", agents[1].LLM.OllamaModel)
}

func TestListAgentsRejectsNonArrayBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"agents":[]}`))
	})

	_, err := client.ListAgents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLoad)
	assert.ErrorIs(t, err, errNotAList)
}

func TestSaveAgentPostsJSONBody(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	err := client.SaveAgent(context.Background(), domain.Agent{
		ID:       "eng",
		Name:     "Eng",
		FolderID: "f-eng",
		LLM:      &domain.LLMConfig{Provider: domain.ProviderGemini},
	})
	require.NoError(t, err)
	assert.Equal(t, "eng", got["id"])
	assert.Equal(t, "f-eng", got["folder_id"])
	assert.Equal(t, "", got["folder_name"])
	assert.Equal(t, map[string]any{"provider": "gemini"}, got["llm_config"])
}

func TestSaveAgentWrapsServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"disk full"}`))
	})

	err := client.SaveAgent(context.Background(), domain.Agent{ID: "eng", Name: "Eng", FolderID: "f"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSave)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "disk full", apiErr.Detail)
}

func TestAskReturnsAnswerAndSources(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is the leave policy?", req["query"])
		assert.Equal(t, "hr", req["agent_id"])
		_, _ = w.Write([]byte(`{"answer":"20 days.","sources":["/data/hr/leave.pdf"]}`))
	})

	answer, err := client.Ask(context.Background(), "what is the leave policy?", "hr")
	require.NoError(t, err)
	assert.Equal(t, "20 days.", answer.Text)
	assert.Equal(t, []string{"/data/hr/leave.pdf"}, answer.Sources)
}

func TestAskKeepsDetailForChatFailures(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Index not found. Please ingest documents first."}`))
	})

	_, err := client.Ask(context.Background(), "hi", "hr")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChat)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Index not found. Please ingest documents first.", apiErr.Detail)
}

func TestDecodeAPIErrorKeepsStructuredDetailAsJSON(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","query"],"msg":"field required"}]}`))
	})

	_, err := client.Ask(context.Background(), "hi", "hr")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail, "field required")
}

func TestIngestionStartAndStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ingest":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"status":"success","message":"Ingestion triggered for agent HR"}`))
		case "/api/ingest/status":
			assert.Equal(t, "hr", r.URL.Query().Get("agent_id"))
			_, _ = w.Write([]byte(`{"status":"PROCESSING","message":"Indexing 3 files"}`))
		default:
			http.NotFound(w, r)
		}
	})

	message, err := client.StartIngestion(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, "Ingestion triggered for agent HR", message)

	job, err := client.IngestionStatus(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionProcessing, job.Status)
	assert.Equal(t, "Indexing 3 files", job.Message)
	assert.Equal(t, domain.AgentID("hr"), job.AgentID)
}

func TestIngestionErrorsWrapSentinels(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Agent not found"}`))
	})

	_, err := client.StartIngestion(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrIngestStart)

	_, err = client.IngestionStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrStatusPoll)
}

func TestListFoldersDefaultsToRoot(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/browse", r.URL.Path)
		assert.Equal(t, "root", r.URL.Query().Get("parent_id"))
		_, _ = w.Write([]byte(`{"folders":[{"id":"f1","name":"Finance"}],"parent_id":"root"}`))
	})

	folders, err := client.ListFolders(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []domain.FolderNode{{ID: "f1", Name: "Finance"}}, folders)
}

func TestListFoldersRejectsMissingList(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"parent_id":"root"}`))
	})

	_, err := client.ListFolders(context.Background(), "root")
	assert.ErrorIs(t, err, domain.ErrBrowse)
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	var saved map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"llm_provider":"ollama","ollama_base_url":"http://localhost:11434","ollama_model":"mistral"}`))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		_, _ = w.Write([]byte(`{"status":"success","message":"Settings saved and RAG chain reset"}`))
	})

	settings, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "mistral", settings.LLM.OllamaModel)

	message, err := client.SaveSettings(context.Background(), domain.Settings{LLM: domain.LLMConfig{Provider: domain.ProviderGemini}})
	require.NoError(t, err)
	assert.Equal(t, "Settings saved and RAG chain reset", message)
	assert.Equal(t, "gemini", saved["llm_provider"])
}

func TestRequestTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := &Client{BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 20 * time.Millisecond}

	_, err := client.ListAgents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLoad)
}

func TestBuildAPIURLValidatesBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{name: "http", base: "http://localhost:8000"},
		{name: "https with path", base: "https://rag.example.com/prefix/"},
		{name: "empty", base: "", wantErr: true},
		{name: "bad scheme", base: "ftp://example.com", wantErr: true},
		{name: "no host", base: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := buildAPIURL(tt.base, "/api/agents")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	client := &Client{BaseURL: "http://localhost:8000"}
	assert.Equal(t, "http://localhost:8000/files/leave.pdf", client.ResolveURL("/files/leave.pdf"))

	broken := &Client{}
	assert.Equal(t, "/files/leave.pdf", broken.ResolveURL("/files/leave.pdf"))
}
