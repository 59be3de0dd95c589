package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"scoringapi/internal/fields"
	"scoringapi/internal/scoring"
	"scoringapi/internal/store"
)

// Method names accepted in the envelope.
const (
	MethodOnlineScore      = "online_score"
	MethodClientsInterests = "clients_interests"
)

// adminScore is returned to admin callers without touching the store.
const adminScore = 42

// RequestContext is per-request scratch owned exclusively by one execution.
// It is filled during dispatch and logged by the transport afterwards.
type RequestContext struct {
	RequestID       string
	Method          string
	Has             []string
	NumberOfClients int
}

// Processor resolves an authenticated, validated envelope to one of the
// business methods. The store is constructor-injected so dispatch stays
// testable with a substitutable backend.
type Processor struct {
	store     store.Store
	scorer    *scoring.Scorer
	log       *zerolog.Logger
	now       func() time.Time
	envelope  *fields.Schema
	score     *fields.Schema
	interests *fields.Schema
}

func NewProcessor(st store.Store, log *zerolog.Logger) *Processor {
	return newProcessor(st, log, time.Now, nil)
}

// NewProcessorWithClock fixes the dispatcher clock so callers can pin the
// admin token window and the birthday bound.
func NewProcessorWithClock(st store.Store, log *zerolog.Logger, now func() time.Time) *Processor {
	return newProcessor(st, log, now, nil)
}

func newProcessor(st store.Store, log *zerolog.Logger, now func() time.Time, formula scoring.Formula) *Processor {
	return &Processor{
		store:     st,
		scorer:    scoring.NewScorer(st, formula, log),
		log:       log,
		now:       now,
		envelope:  newEnvelopeSchema(),
		score:     newOnlineScoreSchema(now),
		interests: newClientsInterestsSchema(),
	}
}

// Handle runs the dispatch pipeline: envelope validation, auth, method
// lookup, argument validation, execution. It returns the result (or an error
// message) with a status code. A non-nil error is an internal failure the
// transport layer maps to 500; validation and auth failures never propagate
// as errors.
func (p *Processor) Handle(ctx context.Context, body map[string]any, reqCtx *RequestContext) (any, int, error) {
	inst := p.envelope.Bind(body)
	if ferr := inst.Validate(); ferr != nil {
		return ferr.Error(), http.StatusUnprocessableEntity, nil
	}
	req := bindMethodRequest(inst)
	reqCtx.Method = req.Method

	if !CheckAuth(req.Login, req.Account, req.Token, req.IsAdmin(), p.now()) {
		return http.StatusText(http.StatusForbidden), http.StatusForbidden, nil
	}

	switch req.Method {
	case MethodOnlineScore:
		return p.handleOnlineScore(ctx, req, reqCtx)
	case MethodClientsInterests:
		return p.handleClientsInterests(ctx, req, reqCtx)
	default:
		msg := fmt.Sprintf("unknown method %q, choose one of: %s, %s",
			req.Method, MethodOnlineScore, MethodClientsInterests)
		return msg, http.StatusUnprocessableEntity, nil
	}
}

func (p *Processor) handleOnlineScore(ctx context.Context, req MethodRequest, reqCtx *RequestContext) (any, int, error) {
	inst := p.score.Bind(req.Arguments)
	if ferr := inst.Validate(); ferr != nil {
		return ferr.Error(), http.StatusUnprocessableEntity, nil
	}
	if err := checkScorePairs(inst); err != nil {
		return err.Error(), http.StatusUnprocessableEntity, nil
	}

	reqCtx.Has = inst.SuppliedNonNil()

	if req.IsAdmin() {
		return map[string]any{"score": adminScore}, http.StatusOK, nil
	}

	score := p.scorer.Score(ctx, bindScoreInput(inst))
	return map[string]any{"score": score}, http.StatusOK, nil
}

func (p *Processor) handleClientsInterests(ctx context.Context, req MethodRequest, reqCtx *RequestContext) (any, int, error) {
	inst := p.interests.Bind(req.Arguments)
	if ferr := inst.Validate(); ferr != nil {
		return ferr.Error(), http.StatusUnprocessableEntity, nil
	}

	ids := bindClientIDs(inst)
	reqCtx.NumberOfClients = len(ids)

	// Mandatory reads: one missing client fails the whole request rather
	// than returning partial results.
	result := make(map[string]any, len(ids))
	for _, id := range ids {
		interests, err := scoring.Interests(ctx, p.store, id)
		if err != nil {
			return nil, http.StatusInternalServerError, fmt.Errorf("interests for client %d: %w", id, err)
		}
		result[strconv.Itoa(id)] = interests
	}
	return result, http.StatusOK, nil
}
