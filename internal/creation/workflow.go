// Package creation submits new tickets for AI classification and, when the
// classifier cannot be reached, creates them locally so submission never fails.
package creation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/remote"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// PendingReviewSolution is the solution given to tickets created without classification.
const PendingReviewSolution = "This ticket will be reviewed by our support team."

// LocalIDPrefix prefixes ids of tickets synthesized without the ticket API.
const LocalIDPrefix = "TICKET-"

// State is the phase of the latest submission.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateDegraded   State = "degraded"
)

var errMissingID = errors.New("ticket api response has no ticket id")

// Inserter receives created tickets.
type Inserter interface {
	Insert(ctx context.Context, ticket domain.Ticket)
}

// Result reports a finished submission.
type Result struct {
	Ticket   domain.Ticket
	State    State
	Degraded bool
	// Reason explains why the ticket was created locally; empty when Degraded is false.
	Reason string
}

// Dependencies bundles collaborators for the workflow.
type Dependencies struct {
	Source     remote.Source
	Store      Inserter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time
}

// Workflow creates tickets.
type Workflow struct {
	source     remote.Source
	store      Inserter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mu    sync.Mutex
	state State
}

// NewWorkflow constructs an idle workflow.
func NewWorkflow(deps Dependencies) *Workflow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Workflow{
		source:     deps.Source,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        now,
		state:      StateIdle,
	}
}

// State returns the phase of the latest submission.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit creates a ticket for problem. A blank problem is rejected before any
// network call. Every other outcome inserts a ticket into the store: the
// classified one on success, a locally built one when the ticket API fails.
func (w *Workflow) Submit(ctx context.Context, problem string) (Result, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return Result{State: w.State()}, apperrors.NewValidationError("problem description is required", nil)
	}

	w.setState(StateSubmitting)

	ticket, err := w.source.CreateTicket(ctx, problem)
	if err == nil && strings.TrimSpace(ticket.ID) == "" {
		err = errMissingID
	}
	if err != nil {
		return w.degrade(ctx, problem, err), nil
	}

	ticket = ticket.Normalize()
	// The stored problem is always what the user submitted.
	ticket.Problem = problem
	w.store.Insert(ctx, ticket)
	w.setState(StateSucceeded)

	w.metrics.RecordEvent(observability.EventTicketCreated)
	w.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("category", ticket.Category))
	events.Publish(ctx, w.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			Priority: ticket.Priority,
			Solution: ticket.Solution,
		},
	}, w.logger)
	return Result{Ticket: ticket, State: StateSucceeded}, nil
}

func (w *Workflow) degrade(ctx context.Context, problem string, cause error) Result {
	now := w.now()
	ticket := domain.Ticket{
		ID:        LocalIDPrefix + strconv.FormatInt(now.UnixMilli(), 10),
		Problem:   problem,
		Solution:  PendingReviewSolution,
		Category:  domain.DefaultCategory,
		Priority:  domain.TicketPriorityMedium,
		Status:    domain.TicketStatusOpen,
		CreatedAt: &now,
	}
	w.store.Insert(ctx, ticket)
	w.setState(StateDegraded)

	w.metrics.RecordEvent(observability.EventTicketDegraded)
	w.logger.Warn("ticket api unavailable, created ticket locally", zap.String("ticket_id", ticket.ID), zap.Error(cause))
	events.Publish(ctx, w.dispatcher, events.Event{
		Type:     events.EventTicketDegraded,
		TicketID: ticket.ID,
		Payload:  events.TicketDegradedPayload{Reason: cause.Error()},
	}, w.logger)
	return Result{Ticket: ticket, State: StateDegraded, Degraded: true, Reason: cause.Error()}
}

func (w *Workflow) setState(state State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
}
