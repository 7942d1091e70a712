package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurachef/ladle/recipe"
)

func TestStateStoreStartsIdle(t *testing.T) {
	s := NewStateStore()
	assert.Equal(t, StageIdle, s.Current().ProcessingStage)
	assert.Zero(t, s.Version())
}

func TestStateStoreStageIsMonotonic(t *testing.T) {
	s := NewStateStore()
	s.beginRun(StageFetching)
	s.setStage(StageValidating)

	// A backward move within the run is ignored.
	s.setStage(StageExtracting)
	assert.Equal(t, StageValidating, s.Current().ProcessingStage)

	s.setStage(StageDoneSuccess)
	assert.Equal(t, StageDoneSuccess, s.Current().ProcessingStage)
}

func TestStateStoreFailureRetainsPartialData(t *testing.T) {
	s := NewStateStore()
	s.beginRun(StageFetching)
	s.finishFailure("caption text", "Tomato Soup")

	st := s.Current()
	assert.Equal(t, StageDoneFailure, st.ProcessingStage)
	assert.Equal(t, "caption text", st.ExtractedContent)
	assert.Equal(t, "Tomato Soup", st.ExtractedRecipeName)
}

func TestStateStoreFetchingRunClearsPartialData(t *testing.T) {
	s := NewStateStore()
	s.beginRun(StageFetching)
	s.finishFailure("caption text", "Tomato Soup")

	// A fresh extraction run drops the old partial data.
	s.beginRun(StageFetching)
	st := s.Current()
	assert.Empty(t, st.ExtractedContent)
	assert.Empty(t, st.ExtractedRecipeName)
}

func TestStateStoreKnowledgeRunKeepsPartialData(t *testing.T) {
	s := NewStateStore()
	s.beginRun(StageFetching)
	s.finishFailure("caption text", "Tomato Soup")

	// Knowledge-mode completion of the failed run keeps the partial data.
	s.beginRun(StageValidating)
	st := s.Current()
	assert.Equal(t, "caption text", st.ExtractedContent)
	assert.Equal(t, "Tomato Soup", st.ExtractedRecipeName)
}

func TestStateStoreSuccessClearsPartialData(t *testing.T) {
	s := NewStateStore()
	s.beginRun(StageFetching)
	s.finishFailure("caption text", "Tomato Soup")

	s.beginRun(StageValidating)
	rec := &recipe.Recipe{Title: "Tomato Soup"}
	s.finishSuccess(rec)

	st := s.Current()
	assert.Equal(t, StageDoneSuccess, st.ProcessingStage)
	require.NotNil(t, st.RecipeJSON)
	assert.Empty(t, st.ExtractedContent)
}

func TestStateStoreListeners(t *testing.T) {
	s := NewStateStore()
	var seen []Stage
	s.Subscribe(func(st State) { seen = append(seen, st.ProcessingStage) })

	s.beginRun(StageFetching)
	s.setStage(StageExtracting)
	s.finishFailure("", "")

	assert.Equal(t, []Stage{StageFetching, StageExtracting, StageDoneFailure}, seen)
	assert.Equal(t, uint64(3), s.Version())
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageDoneSuccess.Terminal())
	assert.True(t, StageDoneFailure.Terminal())
	assert.False(t, StageValidating.Terminal())
	assert.False(t, StageIdle.Terminal())
}
