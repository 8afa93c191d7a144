package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// TicketService coordinates backend ticket workflows.
type TicketService struct {
	tickets         repository.TicketRepository
	categorizer     Categorizer
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	Categorizer     Categorizer
	Logger          *zap.Logger
	DefaultPageSize int
	MaxPageSize     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:         deps.TicketRepo,
		categorizer:     deps.Categorizer,
		logger:          deps.Logger,
		defaultPageSize: deps.DefaultPageSize,
		maxPageSize:     deps.MaxPageSize,
	}
	if svc.categorizer == nil {
		svc.categorizer = KeywordCategorizer{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.defaultPageSize <= 0 {
		svc.defaultPageSize = 20
	}
	if svc.maxPageSize < svc.defaultPageSize {
		svc.maxPageSize = svc.defaultPageSize
	}
	return svc
}

// CreateTicket classifies problem and stores the resulting ticket.
func (s *TicketService) CreateTicket(ctx context.Context, problem string) (*domain.Ticket, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, apperrors.NewValidationError("problem description is required", nil)
	}

	verdict := s.categorizer.Categorize(problem)
	ticket := domain.Ticket{
		ID:       uuid.NewString(),
		Problem:  problem,
		Solution: SuggestedSolution(verdict.Category),
		Category: verdict.Category,
		Priority: domain.TicketPriorityMedium,
		Status:   domain.TicketStatusOpen,
	}.Normalize()

	if err := s.tickets.Create(ctx, &ticket); err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("category", ticket.Category),
		zap.Float64("confidence", verdict.Confidence))
	return &ticket, nil
}

// Categorize classifies a problem without storing a ticket.
func (s *TicketService) Categorize(problem string) (Classification, error) {
	if strings.TrimSpace(problem) == "" {
		return Classification{}, apperrors.NewValidationError("problem description is required", nil)
	}
	return s.categorizer.Categorize(problem), nil
}

// ListTickets returns the page after pageToken. An empty token starts from the beginning.
func (s *TicketService) ListTickets(ctx context.Context, pageToken string, pageSize int) (domain.Page, error) {
	after, err := decodePageToken(pageToken)
	if err != nil {
		return domain.Page{}, err
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	result, err := s.tickets.ListAfter(ctx, after, pageSize)
	if err != nil {
		return domain.Page{}, err
	}
	page := domain.Page{Tickets: result.Tickets}
	if page.Tickets == nil {
		page.Tickets = []domain.Ticket{}
	}
	if result.HasMore {
		page.NextPageToken = encodePageToken(result.LastSeq)
	}
	return page, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// UpdateTicket applies patch and returns the stored ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*ticket)
	if err := s.tickets.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.logger.Info("ticket updated", zap.String("ticket_id", id))
	return &updated, nil
}

func validatePatch(patch domain.TicketPatch) error {
	details := map[string]any{}
	if patch.Priority != nil && !patch.Priority.Valid() {
		details["priority"] = *patch.Priority
	}
	if patch.Status != nil && !patch.Status.Valid() {
		details["status"] = *patch.Status
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		details["category"] = "must not be blank"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket update", details)
	}
	return nil
}

type pageCursor struct {
	After int64 `json:"after"`
}

func encodePageToken(after int64) string {
	raw, _ := json.Marshal(pageCursor{After: after})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodePageToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid page_token", nil)
	}
	var cursor pageCursor
	if err := json.Unmarshal(raw, &cursor); err != nil || cursor.After < 0 {
		return 0, apperrors.NewValidationError("invalid page_token", nil)
	}
	return cursor.After, nil
}
