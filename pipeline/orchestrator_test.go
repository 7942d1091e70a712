package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurachef/ladle/extract"
	"github.com/aurachef/ladle/fetch"
	"github.com/aurachef/ladle/llm"
	"github.com/aurachef/ladle/normalize"
)

const recipeHTML = `<html><head><title>Tomato Soup | Example Kitchen</title></head><body><article>
<h1>Tomato Soup</h1>
<p>This is the soup my grandmother made every autumn when the garden
overflowed with late tomatoes. It takes half an hour from start to finish
and freezes beautifully, so make a double batch while you are at it.</p>
<p>Ingredients</p>
<p>- 2 cups vegetable stock</p>
<p>- 1 tbsp olive oil</p>
<p>- 1 tsp salt</p>
<p>Instructions</p>
<p>1. Chop the tomatoes into quarters.</p>
<p>2. Simmer everything for 20 minutes.</p>
<p>3. Blend until smooth and season to taste before serving.</p>
</article></body></html>`

const goodModelOutput = `{
	"is_valid_recipe": true,
	"recipe": {
		"title": "Tomato Soup",
		"ingredients": [{"name": "tomatoes", "quantity": 6, "unit": "whole"}],
		"steps": ["Chop the tomatoes.", "Simmer for 20 minutes."],
		"servings": 4
	}
}`

const noRecipeOutput = `{"is_valid_recipe": false, "reason": "the page is a travel diary"}`

// scriptedModel returns canned responses in order and counts calls.
type scriptedModel struct {
	responses []string
	calls     atomic.Int32
}

func (m *scriptedModel) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	n := int(m.calls.Add(1)) - 1
	if n >= len(m.responses) {
		n = len(m.responses) - 1
	}
	return &llm.Response{Text: m.responses[n], Model: req.Model}, nil
}

type quietSleeper struct{}

func (quietSleeper) Sleep(time.Duration) {}

func newTestOrchestrator(t *testing.T, handler http.Handler, model *scriptedModel, opts ...Option) (*Orchestrator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fetcher := fetch.NewClient(fetch.WithSleeper(quietSleeper{}))
	stage := normalize.NewStage(model, "test-model")
	return New(fetcher, extract.New(), stage, opts...), srv
}

func TestExtractAndProcessSuccess(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipeHTML))
	}), model)

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/soup")

	require.True(t, res.Success)
	require.NotNil(t, res.RecipeJSON)
	assert.NoError(t, res.RecipeJSON.Validate())
	assert.Equal(t, SourceExtraction, res.Source)
	assert.Empty(t, res.Reason)

	st := orch.State().Current()
	assert.Equal(t, StageDoneSuccess, st.ProcessingStage)
	require.NotNil(t, st.RecipeJSON)
	assert.Empty(t, st.ExtractedContent)
}

func TestExtractAndProcessFetchFailure(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), model)

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/gone")

	require.False(t, res.Success)
	assert.Nil(t, res.RecipeJSON)
	assert.Equal(t, ReasonFetchFailed, res.Reason)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, int32(0), model.calls.Load())
	assert.Equal(t, StageDoneFailure, orch.State().Current().ProcessingStage)
}

func TestExtractAndProcessNoRecipeContent(t *testing.T) {
	model := &scriptedModel{responses: []string{noRecipeOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>My Trip to Rome | Blog</title></head><body><article>
<p>We walked all day and ate gelato in the sun near the fountain, then
wandered through the old market stalls until the vendors packed up.</p>
<p>Dinner was a long affair on a terrace overlooking the river, and we
stayed talking until the lights came on across the water. The next
morning we took the early train south and watched the hills roll past.</p>
</article></body></html>`))
	}), model)

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/rome")

	require.False(t, res.Success)
	assert.Equal(t, ReasonNoRecipeContent, res.Reason)
	assert.Equal(t, "My Trip to Rome", res.RecipeName)
	assert.NotEmpty(t, res.ExtractedContent)

	// Partial data survives in the projection for a follow-up completion.
	content, name, ok := orch.PartialExtractionData()
	assert.True(t, ok)
	assert.Equal(t, "My Trip to Rome", name)
	assert.NotEmpty(t, content)
}

func TestExtractAndProcessRepeatedFailureSameReason(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), model)

	first := orch.ExtractAndProcess(context.Background(), srv.URL+"/gone")
	second := orch.ExtractAndProcess(context.Background(), srv.URL+"/gone")

	require.False(t, first.Success)
	require.False(t, second.Success)
	assert.Equal(t, ReasonFetchFailed, first.Reason)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, int32(0), model.calls.Load())
}

func TestExtractAndProcessFreshRunDropsRetainedData(t *testing.T) {
	model := &scriptedModel{responses: []string{noRecipeOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rome" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`<html><head><title>My Trip to Rome | Blog</title></head><body><article>
<p>We walked all day and ate gelato in the sun near the fountain, then
wandered through the old market stalls until the vendors packed up.</p>
<p>Dinner was a long affair on a terrace overlooking the river, and we
stayed talking until the lights came on across the water. The next
morning we took the early train south and watched the hills roll past.</p>
</article></body></html>`))
	}), model)

	first := orch.ExtractAndProcess(context.Background(), srv.URL+"/rome")
	require.Equal(t, ReasonNoRecipeContent, first.Reason)
	_, _, ok := orch.PartialExtractionData()
	require.True(t, ok)

	// A new run re-enters fetching, which clears the retained data; its
	// failure payload must not carry anything from the previous run.
	second := orch.ExtractAndProcess(context.Background(), srv.URL+"/gone")
	require.False(t, second.Success)
	assert.Equal(t, ReasonFetchFailed, second.Reason)
	assert.Empty(t, second.RecipeName)
	assert.Empty(t, second.ExtractedContent)

	_, _, ok = orch.PartialExtractionData()
	assert.False(t, ok)
}

func TestExtractAndProcessInvalidModelOutput(t *testing.T) {
	model := &scriptedModel{responses: []string{"garbage", "still garbage"}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipeHTML))
	}), model)

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/soup")

	require.False(t, res.Success)
	assert.Equal(t, ReasonInvalidOutput, res.Reason)
	// One formatting retry, then give up.
	assert.Equal(t, int32(2), model.calls.Load())
}

func TestExtractAndProcessNothingUsable(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}), model)

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/empty")

	require.False(t, res.Success)
	assert.Equal(t, ReasonNothingUsable, res.Reason)
	assert.Equal(t, int32(0), model.calls.Load())
}

func TestExtractAndProcessFollowsSingleLink(t *testing.T) {
	var recipeCalls atomic.Int32
	recipeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recipeCalls.Add(1)
		w.Write([]byte(recipeHTML))
	}))
	t.Cleanup(recipeSrv.Close)

	var captionCalls atomic.Int32
	captionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captionCalls.Add(1)
		w.Write([]byte("Full recipe on the blog: " + recipeSrv.URL + "/recipes/tomato-soup"))
	}))
	t.Cleanup(captionSrv.Close)

	model := &scriptedModel{responses: []string{goodModelOutput}}
	fetcher := fetch.NewClient(fetch.WithSleeper(quietSleeper{}))
	extractor := extract.New()
	orch := New(fetcher, extractor, normalize.NewStage(model, "test-model"),
		WithFollower(fetch.NewFollower(fetcher, extractor.Score, nil)),
	)

	// The caption host must differ from the recipe host for the link to be
	// a candidate; localhost and 127.0.0.1 resolve to the same server.
	captionURL := strings.Replace(captionSrv.URL, "127.0.0.1", "localhost", 1)
	res := orch.ExtractAndProcess(context.Background(), captionURL+"/post/1")

	require.True(t, res.Success)
	assert.Equal(t, int32(1), captionCalls.Load())
	assert.Equal(t, int32(1), recipeCalls.Load())
}

func TestProvideFromKnowledgeDeclined(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	orch, _ := newTestOrchestrator(t, http.NotFoundHandler(), model,
		WithApprover(NewQueueApprover(&Decision{Approved: false})))

	res := orch.ProvideFromKnowledge(context.Background(), "tomato soup")

	require.False(t, res.Success)
	assert.Equal(t, ReasonCancelled, res.Reason)
	// Declining the gate must never reach the model.
	assert.Equal(t, int32(0), model.calls.Load())
	assert.Equal(t, StageIdle, orch.State().Current().ProcessingStage)
}

func TestProvideFromKnowledgeApproved(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	orch, _ := newTestOrchestrator(t, http.NotFoundHandler(), model,
		WithApprover(NewQueueApprover(&Decision{Approved: true})))

	res := orch.ProvideFromKnowledge(context.Background(), "tomato soup")

	require.True(t, res.Success)
	assert.Equal(t, SourceKnowledge, res.Source)
	assert.Equal(t, int32(1), model.calls.Load())
	assert.Equal(t, StageDoneSuccess, orch.State().Current().ProcessingStage)
}

func TestProvideFromKnowledgeUsesRetainedName(t *testing.T) {
	model := &scriptedModel{responses: []string{noRecipeOutput, goodModelOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Tomato Soup | Blog</title></head><body><article>
<p>Watch the video for the full recipe. Filming this one took a whole
lovely afternoon of cooking with my sister, and the kitchen smelled of
basil for days afterwards. The written version is coming soon, I promise,
along with the notes on which tomatoes held up best in testing.</p>
</article></body></html>`))
	}), model)

	first := orch.ExtractAndProcess(context.Background(), srv.URL+"/soup")
	require.False(t, first.Success)
	require.Equal(t, "Tomato Soup", first.RecipeName)

	second := orch.ProvideFromKnowledge(context.Background(), "")
	require.True(t, second.Success)
	assert.Equal(t, SourceKnowledge, second.Source)
}

func TestProvideFromKnowledgeWithoutAnyName(t *testing.T) {
	model := &scriptedModel{}
	orch, _ := newTestOrchestrator(t, http.NotFoundHandler(), model)

	res := orch.ProvideFromKnowledge(context.Background(), "")
	require.False(t, res.Success)
	assert.Equal(t, ReasonGenerationFailed, res.Reason)
	assert.Equal(t, int32(0), model.calls.Load())
}

func TestRunEventsEmitted(t *testing.T) {
	model := &scriptedModel{responses: []string{goodModelOutput}}
	emitter := NewEventEmitter()
	var types []EventType
	emitter.Subscribe(func(ev Event) { types = append(types, ev.Type) })

	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipeHTML))
	}), model, WithEmitter(emitter))

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/soup")
	require.True(t, res.Success)

	assert.Equal(t, EventRunStarted, types[0])
	assert.Equal(t, EventRunCompleted, types[len(types)-1])
	assert.Contains(t, types, EventStageStarted)
}

func TestPartialExtractionDataNeedsSignalOrName(t *testing.T) {
	model := &scriptedModel{responses: []string{noRecipeOutput}}
	orch, srv := newTestOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`We walked all day and ate gelato in the sun near the fountain.
Dinner was a long affair on a terrace overlooking the river.
The next morning we took the early train south through the hills.`))
	}), model)

	res := orch.ExtractAndProcess(context.Background(), srv.URL+"/notes")
	require.False(t, res.Success)
	assert.Equal(t, ReasonNoRecipeContent, res.Reason)
	require.NotEmpty(t, res.ExtractedContent)
	assert.False(t, res.PartialSignal())

	// Text with no section signals and no recovered name is not worth a
	// completion offer, even though it was retained.
	_, _, ok := orch.PartialExtractionData()
	assert.False(t, ok)
}

func TestResultPartialSignal(t *testing.T) {
	assert.False(t, (&Result{Success: true}).PartialSignal())
	assert.False(t, (&Result{}).PartialSignal())
	assert.True(t, (&Result{RecipeName: "soup"}).PartialSignal())
	assert.True(t, (&Result{HasIngredients: true}).PartialSignal())
}
