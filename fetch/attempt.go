package fetch

// Attempt is the intermediate artifact of one extraction run. It is created
// by the fetcher, enriched by the link follower and the raw content
// extractor, and consumed by the normalization stage. It is never returned
// to callers directly; on failure, its fields are surfaced inside the
// pipeline's failure descriptor for possible reuse.
type Attempt struct {
	SourceURL string
	Platform  Platform

	// RawContent is free text gathered from the source. May be empty.
	RawContent string

	// CandidateRecipeName is a best-effort title guess. It may come from
	// platform metadata (a video title, a page <title>) even when the body
	// content turns out to be unusable.
	CandidateRecipeName string

	// HasIngredients and HasInstructions are best-effort signals of whether
	// RawContent plausibly contains those sections. They decide whether the
	// caller is offered AI completion after a failed run.
	HasIngredients  bool
	HasInstructions bool
}
