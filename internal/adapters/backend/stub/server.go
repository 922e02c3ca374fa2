// Package stub is an in-memory RAG backend for local development and tests.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/backend/wire"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultIngestDuration = 3 * time.Second

	notConfiguredFolder = "Not Configured"
	unknownFolder       = "Unknown"
	maxRequestBytes     = 1 << 20
	maxSources          = 3
)

type Options struct {
	IngestDuration time.Duration
	Drive          *Drive
	Now            func() time.Time
	Logger         *logging.Logger
}

type job struct {
	folderID string
	started  time.Time
	failure  string
}

type Server struct {
	mu       sync.Mutex
	agents   []wire.Agent
	settings wire.Settings
	jobs     map[string]job
	indexed  map[string]bool

	drive          *Drive
	ingestDuration time.Duration
	now            func() time.Time
	logger         *logging.Logger
}

func New(opts Options) *Server {
	if opts.IngestDuration < 0 {
		opts.IngestDuration = 0
	}
	if opts.Drive == nil {
		opts.Drive = SampleDrive()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	defaults := domain.DefaultLLMConfig()
	return &Server{
		agents: []wire.Agent{{
			ID:         string(domain.DefaultAgentID),
			Name:       "Default Agent",
			FolderID:   "",
			FolderName: notConfiguredFolder,
		}},
		settings: wire.Settings{
			LLMProvider:   string(defaults.Provider),
			OllamaBaseURL: defaults.OllamaBaseURL,
			OllamaModel:   defaults.OllamaModel,
		},
		jobs:           map[string]job{},
		indexed:        map[string]bool{},
		drive:          opts.Drive,
		ingestDuration: opts.IngestDuration,
		now:            opts.Now,
		logger:         opts.Logger,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/agents", s.listAgents)
	r.Post("/api/agents", s.saveAgent)
	r.Delete("/api/agents/{agentID}", s.deleteAgent)
	r.Get("/api/settings", s.getSettings)
	r.Post("/api/settings", s.saveSettings)
	r.Post("/api/ingest", s.startIngestion)
	r.Get("/api/ingest/status", s.ingestionStatus)
	r.Get("/api/browse", s.browse)
	r.Post("/api/chat", s.chat)
	r.Get("/files/{filename}", s.serveFile)
	return r
}

func (s *Server) listAgents(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	agents := append([]wire.Agent{}, s.agents...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) saveAgent(w http.ResponseWriter, r *http.Request) {
	var req wire.Agent
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.ID, validation.Required),
		validation.Field(&req.Name, validation.Required),
	); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, wire.ErrorBody{Detail: err.Error()})
		return
	}

	if req.FolderID != "" && (req.FolderName == "" || req.FolderName == unknownFolder) {
		req.FolderName = unknownFolder
		if name, ok := s.drive.FolderName(req.FolderID); ok {
			req.FolderName = name
		}
	}

	s.mu.Lock()
	replaced := false
	for i := range s.agents {
		if s.agents[i].ID == req.ID {
			s.agents[i] = req
			replaced = true
			break
		}
	}
	if !replaced {
		s.agents = append(s.agents, req)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "agent": req})
}

func (s *Server) deleteAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agentID")

	s.mu.Lock()
	kept := s.agents[:0]
	for _, agent := range s.agents {
		if agent.ID != id {
			kept = append(kept, agent)
		}
	}
	s.agents = kept
	delete(s.jobs, id)
	delete(s.indexed, id)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wire.Message{Status: "success"})
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req wire.Settings
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.LLMProvider, validation.Required, validation.In(string(domain.ProviderGemini), string(domain.ProviderOllama))),
	); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, wire.ErrorBody{Detail: err.Error()})
		return
	}

	s.mu.Lock()
	s.settings = req
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wire.Message{Status: "success", Message: "Settings saved and RAG chain reset"})
}

func (s *Server) startIngestion(w http.ResponseWriter, r *http.Request) {
	req := wire.IngestRequest{AgentID: string(domain.DefaultAgentID)}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.findAgent(req.AgentID)
	if !ok {
		writeJSON(w, http.StatusNotFound, wire.ErrorBody{Detail: "Agent not found"})
		return
	}
	if agent.FolderID == "" {
		writeJSON(w, http.StatusBadRequest, wire.ErrorBody{Detail: "Agent has no target folder set"})
		return
	}

	if s.statusLocked(agent.ID).Status == string(domain.IngestionCompleted) {
		s.indexed[agent.ID] = true
	}
	next := job{folderID: agent.FolderID, started: s.now()}
	if _, known := s.drive.FolderName(agent.FolderID); !known {
		next.failure = fmt.Sprintf("Folder %s not found", agent.FolderID)
	}
	s.jobs[agent.ID] = next
	s.logger.Info().Str("agent_id", agent.ID).Str("folder_id", agent.FolderID).Msg("ingestion started")

	writeJSON(w, http.StatusOK, wire.Message{
		Status:  "started",
		Message: fmt.Sprintf("Ingestion triggered for agent %s", agent.Name),
	})
}

func (s *Server) ingestionStatus(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, wire.ErrorBody{Detail: "agent_id is required"})
		return
	}

	s.mu.Lock()
	status := s.statusLocked(agentID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, status)
}

// statusLocked derives a job's state from the clock. Callers hold s.mu.
func (s *Server) statusLocked(agentID string) wire.IngestStatus {
	current, ok := s.jobs[agentID]
	if !ok {
		return wire.IngestStatus{Status: string(domain.IngestionIdle), Message: "No ingestion record"}
	}
	if current.failure != "" {
		return wire.IngestStatus{Status: string(domain.IngestionFailed), Message: current.failure}
	}
	if s.now().Sub(current.started) < s.ingestDuration {
		return wire.IngestStatus{Status: string(domain.IngestionProcessing), Message: "Starting ingestion..."}
	}
	return wire.IngestStatus{Status: string(domain.IngestionCompleted), Message: "Ingestion complete"}
}

func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	parentID := r.URL.Query().Get("parent_id")
	if parentID == "" {
		parentID = domain.RootFolderID
	}
	if _, ok := s.drive.FolderName(parentID); !ok {
		writeJSON(w, http.StatusInternalServerError, wire.ErrorBody{Detail: fmt.Sprintf("folder %s not found", parentID)})
		return
	}

	writeJSON(w, http.StatusOK, wire.BrowseResponse{
		Folders:  wire.FromFolders(s.drive.Children(parentID)),
		ParentID: parentID,
	})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req := wire.ChatRequest{AgentID: string(domain.DefaultAgentID)}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	agent, found := s.findAgent(req.AgentID)
	ready := found && (s.indexed[req.AgentID] || s.statusLocked(req.AgentID).Status == string(domain.IngestionCompleted))
	s.mu.Unlock()

	if !ready {
		writeJSON(w, http.StatusBadRequest, wire.ErrorBody{Detail: "Index not found. Please ingest documents first."})
		return
	}
	writeJSON(w, http.StatusOK, answer(req.Query, s.drive.FilesUnder(agent.FolderID)))
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	file, ok := s.drive.File(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, wire.ErrorBody{Detail: "Not Found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(file.Content))
}

func (s *Server) findAgent(id string) (wire.Agent, bool) {
	for _, agent := range s.agents {
		if agent.ID == id {
			return agent, true
		}
	}
	return wire.Agent{}, false
}

// answer ranks files by how many query terms they mention and quotes the
// best matching line of the top file.
func answer(query string, files []File) wire.ChatResponse {
	terms := queryTerms(query)

	type scored struct {
		file  File
		score int
	}
	var ranked []scored
	for _, file := range files {
		content := strings.ToLower(file.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{file: file, score: score})
		}
	}
	if len(ranked) == 0 {
		return wire.ChatResponse{Answer: "I don't know based on the provided documents.", Sources: []string{}}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	sources := make([]string, 0, maxSources)
	for i := 0; i < len(ranked) && i < maxSources; i++ {
		sources = append(sources, "downloads/"+ranked[i].file.Name)
	}
	return wire.ChatResponse{Answer: bestLine(ranked[0].file.Content, terms), Sources: sources}
}

func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) >= 3 {
			terms = append(terms, field)
		}
	}
	return terms
}

func bestLine(content string, terms []string) string {
	best, bestScore := "", -1
	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = strings.TrimSpace(line), score
		}
	}
	return best
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, wire.ErrorBody{Detail: "invalid request body"})
		return false
	}
	return true
}
