// Package store owns the ticket collection of one triage session. It merges
// paginated fetches from the ticket API, applies local edits, and hands out
// copies so callers never share its backing slice.
package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/cache"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/remote"
)

// SnapshotKey is the cache key the collection is persisted under.
const SnapshotKey = "tickets"

// ErrTicketNotFound is returned by Update when the id is not in the collection.
var ErrTicketNotFound = errors.New("ticket not found in collection")

// Dependencies bundles collaborators for the store. Only Source is required.
type Dependencies struct {
	Source     remote.Source
	Cache      cache.Cache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Store is the session's authoritative ticket collection.
type Store struct {
	source     remote.Source
	cache      cache.Cache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu      sync.Mutex
	tickets []domain.Ticket
	token   string
	lastErr error

	// generation increases each time a refresh replaces the collection.
	// A load-more issued against an older generation is dropped on arrival.
	generation    uint64
	nextInFlight  bool
	nextIssuedGen uint64

	persistMu sync.Mutex
}

// New constructs a store with an empty collection.
func New(deps Dependencies) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		source:     deps.Source,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// LoadFirstPage fetches the first page and replaces the collection with it.
// On failure the existing collection is kept and the error is recorded and returned.
func (s *Store) LoadFirstPage(ctx context.Context) error {
	page, err := s.source.FetchTickets(ctx, "")
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.pageFailed(ctx, true, err)
		return err
	}

	s.mu.Lock()
	s.tickets = mergeUnique(nil, page.Tickets)
	s.token = page.NextPageToken
	s.generation++
	s.lastErr = nil
	count := len(s.tickets)
	s.mu.Unlock()

	s.metrics.RecordEvent(observability.EventPageLoaded)
	s.logger.Debug("first page loaded", zap.Int("tickets", count), zap.Bool("has_more", page.HasMore()))
	s.persist(ctx)
	return nil
}

// LoadNextPage appends the next page to the collection. It returns nil without
// fetching when there is no continuation token or a load-more is already running.
// A failure clears the token, which ends pagination until the next refresh.
func (s *Store) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	if s.token == "" || (s.nextInFlight && s.nextIssuedGen == s.generation) {
		s.mu.Unlock()
		return nil
	}
	token, gen := s.token, s.generation
	s.nextInFlight, s.nextIssuedGen = true, gen
	s.mu.Unlock()

	page, err := s.source.FetchTickets(ctx, token)

	s.mu.Lock()
	if s.nextIssuedGen == gen {
		s.nextInFlight = false
	}
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		s.metrics.RecordEvent(observability.EventPageDiscarded)
		s.logger.Info("discarding page from replaced collection",
			zap.Uint64("issued_generation", gen),
			zap.Uint64("current_generation", current))
		return nil
	}
	if err != nil {
		s.lastErr = err
		s.token = ""
		s.mu.Unlock()
		s.pageFailed(ctx, false, err)
		return err
	}
	s.tickets = mergeUnique(s.tickets, page.Tickets)
	s.token = page.NextPageToken
	s.lastErr = nil
	count := len(s.tickets)
	s.mu.Unlock()

	s.metrics.RecordEvent(observability.EventPageLoaded)
	s.logger.Debug("next page loaded", zap.Int("tickets", count), zap.Bool("has_more", page.HasMore()))
	s.persist(ctx)
	return nil
}

// ApplyOptimisticUpdate merges patch into the ticket with the given id.
// An unknown id leaves the collection untouched and reports false.
func (s *Store) ApplyOptimisticUpdate(ctx context.Context, id string, patch domain.TicketPatch) bool {
	s.mu.Lock()
	_, ok := s.applyLocked(id, patch)
	s.mu.Unlock()
	if ok {
		s.persist(ctx)
	}
	return ok
}

// applyLocked patches the ticket with id and returns its previous value.
func (s *Store) applyLocked(id string, patch domain.TicketPatch) (domain.Ticket, bool) {
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Ticket{}, false
	}
	before := s.tickets[idx]
	s.tickets[idx] = patch.Apply(before)
	return before, true
}

// Insert adds a newly created ticket at the front of the collection.
// A ticket whose id is already present replaces the existing entry.
func (s *Store) Insert(ctx context.Context, ticket domain.Ticket) {
	s.mu.Lock()
	if idx := s.indexLocked(ticket.ID); idx >= 0 {
		s.tickets[idx] = ticket
	} else {
		s.tickets = append([]domain.Ticket{ticket}, s.tickets...)
	}
	s.mu.Unlock()
	s.persist(ctx)
}

// Update applies patch locally, sends it to the ticket API, and then replaces
// the local ticket with the server's copy. If the API call fails only the
// fields this patch wrote are rolled back, so a concurrent update that the
// API already confirmed survives, and the error is returned.
func (s *Store) Update(ctx context.Context, id string, patch domain.TicketPatch) (domain.Ticket, error) {
	s.mu.Lock()
	before, ok := s.applyLocked(id, patch)
	if !ok {
		s.mu.Unlock()
		return domain.Ticket{}, ErrTicketNotFound
	}
	gen := s.generation
	s.mu.Unlock()
	s.persist(ctx)

	updated, err := s.source.UpdateTicket(ctx, id, patch)
	if err != nil {
		s.mu.Lock()
		// After a refresh the fetched copy is newer than before; leave it.
		if i := s.indexLocked(id); i >= 0 && gen == s.generation {
			s.tickets[i] = patch.Revert(s.tickets[i], before)
		}
		s.mu.Unlock()
		s.persist(ctx)

		s.metrics.RecordEvent(observability.EventUpdateRolledBack)
		s.logger.Warn("ticket update failed, local edit rolled back", zap.String("ticket_id", id), zap.Error(err))
		events.Publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketUpdateFailed,
			TicketID: id,
			Payload:  events.TicketUpdateFailedPayload{Message: err.Error()},
		}, s.logger)
		return domain.Ticket{}, err
	}

	updated.ID = id
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.tickets[i] = updated
	}
	s.mu.Unlock()

	s.metrics.RecordEvent(observability.EventTicketUpdated)
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Payload:  events.TicketUpdatedPayload{Before: before, After: updated},
	}, s.logger)
	s.persist(ctx)
	return updated, nil
}

// Hydrate restores a persisted collection into an empty store so a failed
// refresh can still show the last known tickets. It reports whether anything was restored.
func (s *Store) Hydrate(ctx context.Context) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	var cached []domain.Ticket
	found, err := s.cache.Get(ctx, SnapshotKey, &cached)
	if err != nil || !found {
		return false, err
	}
	for i := range cached {
		cached[i] = cached[i].Normalize()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tickets) > 0 {
		return false, nil
	}
	s.tickets = mergeUnique(nil, cached)
	return len(s.tickets) > 0, nil
}

// Tickets returns a copy of the collection.
func (s *Store) Tickets() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Ticket(nil), s.tickets...)
}

// Get returns the ticket with the given id.
func (s *Store) Get(id string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.tickets[idx], true
	}
	return domain.Ticket{}, false
}

// Len returns the number of tickets held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// HasMore reports whether a continuation token is held.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Err returns the error of the last failed load, cleared by the next successful one.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Generation returns how many times a refresh has replaced the collection.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) pageFailed(ctx context.Context, first bool, err error) {
	s.metrics.RecordEvent(observability.EventPageFailed)
	s.logger.Warn("ticket page load failed", zap.Bool("first_page", first), zap.Error(err))
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventPageLoadFailed,
		Payload: events.PageLoadFailedPayload{FirstPage: first, Message: err.Error()},
	}, s.logger)
}

// persist writes the current collection to the cache. Writers serialize on
// persistMu and snapshot inside it, so the last write always holds the latest state.
func (s *Store) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.cache.Set(ctx, SnapshotKey, s.Tickets()); err != nil {
		s.logger.Warn("persist ticket snapshot", zap.Error(err))
	}
}

// mergeUnique appends incoming to dst, replacing entries whose id is already present.
func mergeUnique(dst, incoming []domain.Ticket) []domain.Ticket {
	out := append(make([]domain.Ticket, 0, len(dst)+len(incoming)), dst...)
	index := make(map[string]int, len(out))
	for i, t := range out {
		index[t.ID] = i
	}
	for _, t := range incoming {
		if i, ok := index[t.ID]; ok {
			out[i] = t
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}
