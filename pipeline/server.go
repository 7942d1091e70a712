package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aurachef/ladle/extract"
	"github.com/aurachef/ladle/fetch"
	"github.com/aurachef/ladle/normalize"
	"github.com/aurachef/ladle/store"
)

// ServerConfig wires the stages shared by every run the server launches.
type ServerConfig struct {
	Fetcher   *fetch.Client
	Follower  *fetch.Follower
	Extractor *extract.Extractor
	Stage     *normalize.Stage

	// Store, when set, archives every successful recipe.
	Store *store.Store

	Logger *zap.Logger
}

// Run tracks one launched pipeline run.
type Run struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Input     string    `json:"input"`
	CreatedAt time.Time `json:"created_at"`

	// Done and Result are set when the run's goroutine finishes.
	Done   bool    `json:"done"`
	Result *Result `json:"result,omitempty"`

	orch     *Orchestrator
	approver *ChannelApprover

	// pendingApproval is non-nil while the run waits at the gate.
	pendingApproval *ApprovalRequest

	events      []Event
	subscribers []chan Event
}

// Server exposes the pipeline over HTTP. Each launched run gets its own
// orchestrator and state store, so concurrent runs never share mutable
// state.
type Server struct {
	cfg ServerConfig
	log *zap.Logger

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewServer creates a pipeline HTTP server.
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:  cfg,
		log:  log,
		runs: make(map[string]*Run),
	}
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /runs/extract", s.handleExtract)
	mux.HandleFunc("POST /runs/knowledge", s.handleKnowledge)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/state", s.handleGetState)
	mux.HandleFunc("GET /runs/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /runs/{id}/approval", s.handleGetApproval)
	mux.HandleFunc("POST /runs/{id}/approval", s.handlePostApproval)
	mux.HandleFunc("GET /runs/{id}/partial", s.handleGetPartial)
	mux.HandleFunc("GET /recipes", s.handleListRecipes)
	mux.HandleFunc("GET /recipes/{id}", s.handleGetRecipe)
	mux.HandleFunc("DELETE /recipes/{id}", s.handleDeleteRecipe)
	return mux
}

type extractRequest struct {
	URL string `json:"url"`
}

type knowledgeRequest struct {
	RecipeName string `json:"recipe_name"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	run := s.launch("extraction", req.URL, func(ctx context.Context, run *Run) *Result {
		return run.orch.ExtractAndProcess(ctx, req.URL)
	})
	s.mu.RLock()
	snap := run.snapshot()
	s.mu.RUnlock()
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	var req knowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipeName == "" {
		writeError(w, http.StatusBadRequest, "recipe_name is required")
		return
	}

	run := s.launch("knowledge", req.RecipeName, func(ctx context.Context, run *Run) *Result {
		return run.orch.ProvideFromKnowledge(ctx, req.RecipeName)
	})
	s.mu.RLock()
	snap := run.snapshot()
	s.mu.RUnlock()
	writeJSON(w, http.StatusAccepted, snap)
}

// launch registers a run and starts its goroutine. Runs outlive the HTTP
// request that created them, so they get a background context rather than
// the request's.
func (s *Server) launch(mode, input string, fn func(context.Context, *Run) *Result) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Input:     input,
		CreatedAt: time.Now().UTC(),
		approver:  NewChannelApprover(),
	}

	opts := []Option{
		WithOrchestratorLogger(s.log.With(zap.String("run_id", run.ID))),
		WithApprover(&gateRecorder{server: s, run: run}),
	}
	if s.cfg.Follower != nil {
		opts = append(opts, WithFollower(s.cfg.Follower))
	}
	run.orch = New(s.cfg.Fetcher, s.cfg.Extractor, s.cfg.Stage, opts...)
	run.orch.Events().Subscribe(func(ev Event) { s.publish(run, ev) })

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	go func() {
		result := fn(context.Background(), run)
		s.finish(run, result)
	}()
	return run
}

func (s *Server) finish(run *Run, result *Result) {
	s.mu.Lock()
	run.Done = true
	run.Result = result
	run.pendingApproval = nil
	subs := run.subscribers
	run.subscribers = nil
	s.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}

	if result.Success && s.cfg.Store != nil && result.RecipeJSON != nil {
		if err := s.cfg.Store.Save(context.Background(), result.RecipeJSON); err != nil {
			s.log.Error("archive recipe failed",
				zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

// publish records an event and fans it out to SSE subscribers.
func (s *Server) publish(run *Run, ev Event) {
	s.mu.Lock()
	run.events = append(run.events, ev)
	subs := make([]chan Event, len(run.subscribers))
	copy(subs, run.subscribers)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; it will catch up from the stored backlog.
		}
	}
}

// gateRecorder wraps the run's ChannelApprover so the server can surface
// the pending request over GET /runs/{id}/approval.
type gateRecorder struct {
	server *Server
	run    *Run
}

func (g *gateRecorder) Ask(ctx context.Context, req *ApprovalRequest) (*Decision, error) {
	g.server.mu.Lock()
	g.run.pendingApproval = req
	g.server.mu.Unlock()

	d, err := g.run.approver.Ask(ctx, req)

	g.server.mu.Lock()
	g.run.pendingApproval = nil
	g.server.mu.Unlock()
	return d, err
}

func (s *Server) lookup(r *http.Request) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[r.PathValue("id")]
	return run, ok
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.mu.RLock()
	snap := run.snapshot()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run.orch.State().Current())
}

func (s *Server) handleGetApproval(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.mu.RLock()
	pending := run.pendingApproval
	s.mu.RUnlock()
	if pending == nil {
		writeError(w, http.StatusNotFound, "no approval pending")
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handlePostApproval(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	var d Decision
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid decision body")
		return
	}

	s.mu.RLock()
	pending := run.pendingApproval
	s.mu.RUnlock()
	if pending == nil {
		writeError(w, http.StatusConflict, "no approval pending")
		return
	}

	run.approver.Resolve(&d)
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (s *Server) handleGetPartial(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	content, name, has := run.orch.PartialExtractionData()
	writeJSON(w, http.StatusOK, map[string]any{
		"available":         has,
		"extracted_content": content,
		"recipe_name":       name,
	})
}

// handleEvents streams the run's lifecycle events as SSE, replaying the
// backlog first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ch := make(chan Event, 16)
	s.mu.Lock()
	backlog := make([]Event, len(run.events))
	copy(backlog, run.events)
	done := run.Done
	if !done {
		run.subscribers = append(run.subscribers, ch)
	}
	s.mu.Unlock()

	for _, ev := range backlog {
		writeSSE(w, ev)
	}
	flusher.Flush()
	if done {
		return
	}

	for {
		select {
		case ev, open := <-ch:
			if !open {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusNotImplemented, "no recipe store configured")
		return
	}
	summaries, err := s.cfg.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusNotImplemented, "no recipe store configured")
		return
	}
	rec, err := s.cfg.Store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusNotImplemented, "no recipe store configured")
		return
	}
	err := s.cfg.Store.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// snapshot copies the externally visible run fields. Callers hold the
// server lock when the run may still be mutating.
func (r *Run) snapshot() *Run {
	return &Run{
		ID:        r.ID,
		Mode:      r.Mode,
		Input:     r.Input,
		CreatedAt: r.CreatedAt,
		Done:      r.Done,
		Result:    r.Result,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
