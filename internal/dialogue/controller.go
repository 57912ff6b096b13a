package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/devang/mentor/internal/chat"
	"github.com/devang/mentor/internal/contract"
	"github.com/devang/mentor/internal/prompt"
	"github.com/devang/mentor/internal/store"
	"github.com/devang/mentor/internal/tutor"
)

// ErrTurnInFlight is returned when TakeTurn is called while another turn
// for the same session is still awaiting the model.
var ErrTurnInFlight = errors.New("a turn is already in flight for this session")

// GuardrailRedirectMessage replaces the model's reply when a learner in
// the guided state asks for the answer outright.
const GuardrailRedirectMessage = "Let's not jump straight to the answer. Try working through the problem first and tell me what you get, and we'll check it together."

// questionExcerptLimit caps how much of the learner's message is copied
// into a mistake record.
const questionExcerptLimit = 200

// TurnGateway is the inference surface the controller depends on.
// *gateway.Gateway satisfies it.
type TurnGateway interface {
	RequestTurn(ctx context.Context, instruction string, prior []chat.Turn, userText string) *contract.StructuredResponse
}

// Config identifies the learner session a controller drives.
type Config struct {
	Identity string
	Profile  tutor.Profile
	Subject  tutor.Subject
	Mode     tutor.TaskMode
}

// Controller owns one learner session: the current pedagogical state, the
// transcript, and the turn protocol that ties the instruction builder,
// the gateway, and persistence together. All mutation goes through
// TakeTurn and Reset; nothing else writes session state.
type Controller struct {
	cfg         Config
	gw          TurnGateway
	transcripts store.TranscriptRepo
	mistakes    store.MistakeRepo
	logger      *zap.Logger

	mu         sync.Mutex
	inFlight   bool
	state      tutor.State
	transcript []chat.Turn
	lastResp   *contract.StructuredResponse
}

// NewController builds a controller in the initial guided state with an
// empty transcript. Call Restore to pick up a persisted transcript. The
// mistake repo may be nil when the session mode never archives mistakes.
func NewController(cfg Config, gw TurnGateway, transcripts store.TranscriptRepo, mistakes store.MistakeRepo, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:         cfg,
		gw:          gw,
		transcripts: transcripts,
		mistakes:    mistakes,
		logger:      logger,
		state:       tutor.StateGuiding,
		transcript:  []chat.Turn{},
	}
}

// Restore loads the learner's persisted transcript into the session.
func (c *Controller) Restore(ctx context.Context) error {
	turns, err := c.transcripts.LoadTranscript(ctx, c.cfg.Identity)
	if err != nil {
		return fmt.Errorf("loading transcript for %s: %w", c.cfg.Identity, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = turns
	return nil
}

// TurnResult is what one completed exchange hands to the UI.
type TurnResult struct {
	// DisplayText is what the learner sees. It is the model's
	// content_for_user unless the guardrail substituted the redirect.
	DisplayText string `json:"display_text"`

	// Response is the full structured record behind the display text.
	Response *contract.StructuredResponse `json:"response"`

	// State is the pedagogical state after the transition was applied.
	State tutor.State `json:"state"`

	// GuardrailApplied reports whether the redirect substitution fired.
	GuardrailApplied bool `json:"guardrail_applied"`
}

// TakeTurn runs one exchange: it appends the user turn, builds the
// instruction from the state at the time of the request, calls the
// gateway, applies the guardrail, adopts the suggested transition,
// appends the assistant turn, and persists the transcript. Model and
// transport failures never surface here; the gateway resolves them to
// fallback records and the turn completes.
//
// Only one turn may be in flight per session. A concurrent call returns
// ErrTurnInFlight without touching session state. A persistence failure
// is returned alongside a fully populated result: the turn itself
// completed in memory.
func (c *Controller) TakeTurn(ctx context.Context, userText string) (*TurnResult, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	c.inFlight = true

	stateAtRequest := c.state
	c.transcript = append(c.transcript, chat.NewUserTurn(userText))
	prior := append([]chat.Turn(nil), c.transcript[:len(c.transcript)-1]...)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	instruction, err := prompt.BuildInstruction(c.cfg.Subject, c.cfg.Profile, c.cfg.Mode, stateAtRequest)
	if err != nil {
		c.mu.Lock()
		c.transcript = c.transcript[:len(c.transcript)-1]
		c.mu.Unlock()
		return nil, fmt.Errorf("building instruction: %w", err)
	}

	// The sole suspension point of the turn. The gateway never returns
	// nil and never returns an error.
	resp := c.gw.RequestTurn(ctx, instruction, prior, userText)

	displayText := resp.ContentForUser
	guardrailApplied := false
	if stateAtRequest == tutor.StateGuiding && resp.IsDirectAnswerAttempt {
		displayText = GuardrailRedirectMessage
		guardrailApplied = true
		c.logger.Info("guardrail redirect applied",
			zap.String("identity", c.cfg.Identity),
			zap.String("knowledge_point", resp.KnowledgePointID))
	}

	c.mu.Lock()
	if resp.SuggestedNextState.Valid() && resp.SuggestedNextState != c.state {
		c.logger.Info("state transition",
			zap.String("identity", c.cfg.Identity),
			zap.String("from", c.state.String()),
			zap.String("to", resp.SuggestedNextState.String()))
		c.state = resp.SuggestedNextState
	}
	c.transcript = append(c.transcript, chat.NewAssistantTurn(displayText, resp))
	c.lastResp = resp
	result := &TurnResult{
		DisplayText:      displayText,
		Response:         resp,
		State:            c.state,
		GuardrailApplied: guardrailApplied,
	}
	snapshot := append([]chat.Turn(nil), c.transcript...)
	c.mu.Unlock()

	c.archiveMistake(ctx, userText, resp)

	if err := c.transcripts.SaveTranscript(ctx, c.cfg.Identity, snapshot); err != nil {
		c.logger.Error("transcript save failed",
			zap.String("identity", c.cfg.Identity),
			zap.Error(err))
		return result, fmt.Errorf("saving transcript for %s: %w", c.cfg.Identity, err)
	}
	return result, nil
}

// archiveMistake writes one mistake record when the session is in
// mistake-analysis mode and the response carries a real diagnosis. Error
// sentinels from fallback records never reach the archive. Archive
// failures are logged, not propagated; the mistake book is best-effort.
func (c *Controller) archiveMistake(ctx context.Context, userText string, resp *contract.StructuredResponse) {
	if c.cfg.Mode != tutor.ModeMistakeAnalysis || c.mistakes == nil {
		return
	}
	if resp.KnowledgePointID == "" || resp.InternalMonologue == "" {
		return
	}
	if contract.IsErrorSentinel(resp.KnowledgePointID) {
		return
	}

	rec := store.MistakeRecord{
		Identity:         c.cfg.Identity,
		Subject:          c.cfg.Subject,
		QuestionExcerpt:  excerpt(userText, questionExcerptLimit),
		Analysis:         resp.InternalMonologue,
		KnowledgePointID: resp.KnowledgePointID,
	}
	if err := c.mistakes.AppendMistake(ctx, rec); err != nil {
		c.logger.Error("mistake archive append failed",
			zap.String("identity", c.cfg.Identity),
			zap.String("knowledge_point", resp.KnowledgePointID),
			zap.Error(err))
	}
}

// Reset returns the session to the guided state with an empty transcript
// and persists the cleared transcript. A reset while a turn is in flight
// is rejected.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.state = tutor.StateGuiding
	c.transcript = []chat.Turn{}
	c.lastResp = nil
	c.mu.Unlock()

	if err := c.transcripts.SaveTranscript(ctx, c.cfg.Identity, []chat.Turn{}); err != nil {
		return fmt.Errorf("clearing transcript for %s: %w", c.cfg.Identity, err)
	}
	return nil
}

// State returns the current pedagogical state.
func (c *Controller) State() tutor.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastResponse returns the structured record of the most recent completed
// turn, or nil before the first turn.
func (c *Controller) LastResponse() *contract.StructuredResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResp
}

// Transcript returns a copy of the session transcript, oldest first.
func (c *Controller) Transcript() []chat.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Turn(nil), c.transcript...)
}

// Identity returns the learner identity this session belongs to.
func (c *Controller) Identity() string {
	return c.cfg.Identity
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
