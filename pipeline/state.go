package pipeline

import (
	"sync"

	"github.com/aurachef/ladle/recipe"
)

// State is the projection of orchestrator progress visible to external
// readers. It is written exclusively by the orchestrator; readers poll
// Current or subscribe for updates.
type State struct {
	// ProcessingStage is the current step; StageIdle when no run is active.
	ProcessingStage Stage `json:"processing_stage"`

	// RecipeJSON is the last successful recipe, if any.
	RecipeJSON *recipe.Recipe `json:"recipe_json,omitempty"`

	// ExtractedContent and ExtractedRecipeName carry over from the last
	// failed attempt so a follow-up knowledge-mode completion does not need
	// to re-run extraction. They are keyed to the run that produced them
	// and cleared when a new run enters fetching.
	ExtractedContent    string `json:"extracted_content,omitempty"`
	ExtractedRecipeName string `json:"extracted_recipe_name,omitempty"`
}

// StateStore holds the State projection. Each stage's publish is one atomic
// update, so readers never observe a torn intermediate state. Within one
// run the processing stage only advances; it resets on a fresh run.
type StateStore struct {
	mu        sync.RWMutex
	state     State
	version   uint64
	listeners []func(State)
}

// NewStateStore creates an idle state store.
func NewStateStore() *StateStore {
	return &StateStore{
		state: State{ProcessingStage: StageIdle},
	}
}

// Current returns a snapshot of the state.
func (s *StateStore) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the number of published updates.
func (s *StateStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers a listener invoked after every published update.
// Listeners run synchronously in registration order.
func (s *StateStore) Subscribe(listener func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// beginRun resets the projection for a fresh run entering the given stage.
// When the run enters fetching, partial data from prior runs is dropped so
// it cannot leak into a new URL's result; knowledge-mode runs keep it,
// since they may be completing a prior failed extraction.
func (s *StateStore) beginRun(stage Stage) {
	s.mu.Lock()
	s.state.ProcessingStage = stage
	if stage == StageFetching {
		s.state.ExtractedContent = ""
		s.state.ExtractedRecipeName = ""
	}
	s.version++
	snapshot := s.state
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// setStage advances the processing stage. Backward moves within a run are
// ignored; a fresh run goes through beginRun instead.
func (s *StateStore) setStage(stage Stage) {
	s.mu.Lock()
	if stageOrder[stage] < stageOrder[s.state.ProcessingStage] {
		s.mu.Unlock()
		return
	}
	s.state.ProcessingStage = stage
	s.version++
	snapshot := s.state
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// finishSuccess publishes the terminal success state in one update.
func (s *StateStore) finishSuccess(rec *recipe.Recipe) {
	s.mu.Lock()
	s.state.ProcessingStage = StageDoneSuccess
	s.state.RecipeJSON = rec
	s.state.ExtractedContent = ""
	s.state.ExtractedRecipeName = ""
	s.version++
	snapshot := s.state
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// finishFailure publishes the terminal failure state, retaining partial
// extraction data for a possible follow-up completion.
func (s *StateStore) finishFailure(extractedContent, extractedName string) {
	s.mu.Lock()
	s.state.ProcessingStage = StageDoneFailure
	s.state.ExtractedContent = extractedContent
	s.state.ExtractedRecipeName = extractedName
	s.version++
	snapshot := s.state
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// reset returns the store to idle without touching retained partial data.
// Used when an approval gate resolves as cancelled.
func (s *StateStore) reset() {
	s.mu.Lock()
	s.state.ProcessingStage = StageIdle
	s.version++
	snapshot := s.state
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

func (s *StateStore) listenersLocked() []func(State) {
	out := make([]func(State), len(s.listeners))
	copy(out, s.listeners)
	return out
}

func notify(listeners []func(State), snapshot State) {
	for _, l := range listeners {
		l(snapshot)
	}
}
