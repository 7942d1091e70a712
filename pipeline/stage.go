// Package pipeline orchestrates recipe extraction and normalization runs.
// It sequences the fetcher, link follower, raw extractor, and the model
// normalization stage, publishing progress to a single-writer state
// projection and exposing the tool contracts consumed by the calling
// surface.
package pipeline

// Stage names the orchestrator's position in a run. Within one run the
// stage only moves forward through this list; it resets only when a fresh
// run begins.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageFetching         Stage = "fetching"
	StageLinkFollowing    Stage = "link_following"
	StageExtracting       Stage = "extracting"
	StageValidating       Stage = "validating"
	StageDoneSuccess      Stage = "done_success"
	StageDoneFailure      Stage = "done_failure"
	StageAwaitingApproval Stage = "awaiting_approval"
)

// stageOrder gives each stage its position for the monotonicity check.
// awaiting_approval is a side-state entered from idle for knowledge-mode
// requests.
var stageOrder = map[Stage]int{
	StageIdle:             0,
	StageAwaitingApproval: 1,
	StageFetching:         2,
	StageLinkFollowing:    3,
	StageExtracting:       4,
	StageValidating:       5,
	StageDoneSuccess:      6,
	StageDoneFailure:      6,
}

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageDoneSuccess || s == StageDoneFailure
}

func (s Stage) String() string { return string(s) }
