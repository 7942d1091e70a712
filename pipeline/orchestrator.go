package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aurachef/ladle/extract"
	"github.com/aurachef/ladle/fetch"
	"github.com/aurachef/ladle/normalize"
	"github.com/aurachef/ladle/recipe"
)

// Orchestrator sequences one run at a time through fetch, link following,
// extraction and normalization, publishing progress to its StateStore.
// A run always terminates in a Result; internal errors are mapped to a
// stable failure reason and never escape as bare errors.
type Orchestrator struct {
	fetcher   *fetch.Client
	follower  *fetch.Follower
	extractor *extract.Extractor
	stage     *normalize.Stage
	state     *StateStore
	approver  Approver
	emitter   *EventEmitter
	log       *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFollower enables one-hop link following after fetch.
func WithFollower(f *fetch.Follower) Option {
	return func(o *Orchestrator) { o.follower = f }
}

// WithApprover sets the human gate for knowledge-mode generation. The
// default AutoApprover approves everything.
func WithApprover(a Approver) Option {
	return func(o *Orchestrator) { o.approver = a }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(e *EventEmitter) Option {
	return func(o *Orchestrator) { o.emitter = e }
}

// WithStateStore sets the state projection store. By default each
// orchestrator gets its own.
func WithStateStore(s *StateStore) Option {
	return func(o *Orchestrator) { o.state = s }
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an orchestrator from its three mandatory stages.
func New(fetcher *fetch.Client, extractor *extract.Extractor, stage *normalize.Stage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		stage:     stage,
		state:     NewStateStore(),
		approver:  AutoApprover{},
		emitter:   NewEventEmitter(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the orchestrator's state projection store.
func (o *Orchestrator) State() *StateStore { return o.state }

// Events returns the orchestrator's event emitter.
func (o *Orchestrator) Events() *EventEmitter { return o.emitter }

// ExtractAndProcess runs the full extraction pipeline for a URL: fetch,
// optional one-hop link follow, heuristic extraction, then model
// normalization. Partial extraction data from a failed run is retained so
// the caller can offer knowledge-mode completion without re-fetching.
func (o *Orchestrator) ExtractAndProcess(ctx context.Context, sourceURL string) *Result {
	start := time.Now()
	o.emitter.Emit(RunStartedEvent("extraction", sourceURL))
	o.state.beginRun(StageFetching)
	o.emitter.Emit(StageStartedEvent(StageFetching))

	attempt, err := o.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		if ctx.Err() != nil {
			return o.fail(start, ReasonCancelled, err, nil)
		}
		return o.fail(start, ReasonFetchFailed, err, nil)
	}
	o.emitter.Emit(StageCompletedEvent(StageFetching, time.Since(start)))

	if o.follower != nil {
		o.state.setStage(StageLinkFollowing)
		o.emitter.Emit(StageStartedEvent(StageLinkFollowing))
		attempt = o.follower.MaybeFollow(ctx, attempt)
	}

	o.state.setStage(StageExtracting)
	o.emitter.Emit(StageStartedEvent(StageExtracting))
	attempt = o.extractor.Enrich(attempt)
	if attempt.RawContent == "" {
		return o.fail(start, ReasonNothingUsable,
			&extract.ParseError{SourceURL: attempt.SourceURL}, attempt)
	}

	o.state.setStage(StageValidating)
	o.emitter.Emit(StageStartedEvent(StageValidating))
	rec, err := o.stage.Normalize(ctx, normalize.Input{
		RawContent: attempt.RawContent,
		RecipeName: attempt.CandidateRecipeName,
		SourceURL:  sourceURL,
	})
	if err != nil {
		return o.fail(start, reasonForNormalizeError(ctx, err), err, attempt)
	}

	return o.succeed(start, rec, SourceExtraction)
}

// GenerateFromKnowledge produces a recipe for a dish name from the model's
// own knowledge, without any source content. Callers that need a human
// approval gate use ProvideFromKnowledge instead.
func (o *Orchestrator) GenerateFromKnowledge(ctx context.Context, recipeName string) *Result {
	if recipeName == "" {
		recipeName = o.state.Current().ExtractedRecipeName
	}
	start := time.Now()
	o.emitter.Emit(RunStartedEvent("knowledge", recipeName))
	o.state.beginRun(StageValidating)
	o.emitter.Emit(StageStartedEvent(StageValidating))

	rec, err := o.stage.Normalize(ctx, normalize.Input{RecipeName: recipeName})
	if err != nil {
		if ctx.Err() != nil {
			return o.fail(start, ReasonCancelled, err, nil)
		}
		return o.fail(start, ReasonGenerationFailed, err, nil)
	}

	return o.succeed(start, rec, SourceKnowledge)
}

// ProvideFromKnowledge asks the approver before generating from knowledge.
// On cancellation the state returns to idle and no model call is made.
func (o *Orchestrator) ProvideFromKnowledge(ctx context.Context, recipeName string) *Result {
	if recipeName == "" {
		recipeName = o.state.Current().ExtractedRecipeName
	}
	if recipeName == "" {
		return failureResult(ReasonGenerationFailed, "no recipe name to generate from")
	}

	o.state.beginRun(StageAwaitingApproval)
	o.emitter.Emit(ApprovalRequestedEvent(recipeName))

	decision, err := o.approver.Ask(ctx, &ApprovalRequest{RecipeName: recipeName})
	if err != nil || decision == nil || !decision.Approved {
		o.emitter.Emit(ApprovalResolvedEvent(recipeName, false))
		o.state.reset()
		o.log.Info("knowledge-mode generation declined",
			zap.String("recipe_name", recipeName))
		return failureResult(ReasonCancelled, "generation was not approved")
	}
	o.emitter.Emit(ApprovalResolvedEvent(recipeName, true))

	return o.GenerateFromKnowledge(ctx, recipeName)
}

// PartialExtractionData returns the content and recipe name retained from
// the last failed extraction run. ok mirrors the offer condition on the
// failure payload: a section signal in the retained content or a recovered
// recipe name. Content that carries neither is not worth completing.
func (o *Orchestrator) PartialExtractionData() (content, recipeName string, ok bool) {
	st := o.state.Current()
	hasIngredients, hasInstructions := o.extractor.Signals(st.ExtractedContent)
	return st.ExtractedContent, st.ExtractedRecipeName,
		hasIngredients || hasInstructions || st.ExtractedRecipeName != ""
}

func (o *Orchestrator) succeed(start time.Time, rec *recipe.Recipe, source Source) *Result {
	o.state.finishSuccess(rec)
	o.emitter.Emit(RunCompletedEvent(source, time.Since(start)))
	o.log.Info("run succeeded",
		zap.String("source", string(source)),
		zap.String("title", rec.Title),
		zap.Duration("duration", time.Since(start)))
	return successResult(rec, source)
}

// fail publishes the terminal failure state and builds the Result, folding
// in whatever partial data the attempt gathered before things went wrong.
func (o *Orchestrator) fail(start time.Time, reason string, cause error, attempt *fetch.Attempt) *Result {
	res := failureResult(reason, cause.Error())

	// With no attempt (fetch failure, knowledge mode) previously retained
	// partial data stays untouched; only entering fetching clears it.
	st := o.state.Current()
	content, name := st.ExtractedContent, st.ExtractedRecipeName
	if attempt != nil {
		content = attempt.RawContent
		name = attempt.CandidateRecipeName
		res.RecipeName = name
		res.HasIngredients = attempt.HasIngredients
		res.HasInstructions = attempt.HasInstructions
		res.ExtractedContent = content
	}
	o.state.finishFailure(content, name)
	o.emitter.Emit(RunFailedEvent(reason, cause.Error(), time.Since(start)))
	o.log.Warn("run failed",
		zap.String("reason", reason),
		zap.Error(cause),
		zap.Duration("duration", time.Since(start)))
	return res
}

// reasonForNormalizeError maps a normalization failure to its stable reason.
func reasonForNormalizeError(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return ReasonCancelled
	}
	if errors.Is(err, normalize.ErrNoRecipeContent) {
		return ReasonNoRecipeContent
	}
	var ve *normalize.ValidationError
	if errors.As(err, &ve) {
		return ReasonInvalidOutput
	}
	// Anything else is a model call failure (network, auth, rate limit).
	return ReasonGenerationFailed
}
