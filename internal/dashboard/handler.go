// Package dashboard exposes one triage session over JSON for a browser front end.
package dashboard

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/catalog"
	"github.com/spec-kit/ticket-triage/internal/creation"
	"github.com/spec-kit/ticket-triage/internal/query"
	"github.com/spec-kit/ticket-triage/internal/store"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// Dependencies bundles collaborators for the dashboard handler.
type Dependencies struct {
	Store    *store.Store
	Workflow *creation.Workflow
	Catalog  *catalog.Catalog
	Logger   *zap.Logger
	Now      func() time.Time
}

// Handler serves the dashboard routes.
type Handler struct {
	store    *store.Store
	workflow *creation.Workflow
	catalog  *catalog.Catalog
	logger   *zap.Logger
	now      func() time.Time

	// loading is set while a refresh is running.
	loading atomic.Bool
}

// NewHandler constructs the handler.
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		store:    deps.Store,
		workflow: deps.Workflow,
		catalog:  deps.Catalog,
		logger:   logger,
		now:      now,
	}
}

// Register mounts the dashboard routes under router.
func (h *Handler) Register(router fiber.Router) {
	group := router.Group("/dashboard")
	group.Get("/tickets", h.ListTickets)
	group.Post("/tickets", h.CreateTicket)
	group.Patch("/tickets/:id", h.UpdateTicket)
	group.Post("/refresh", h.Refresh)
	group.Post("/more", h.LoadMore)
	group.Get("/categories", h.ListCategories)
	group.Post("/categories", h.CreateCategory)
	group.Delete("/categories/:id", h.DeleteCategory)
}

// ListTickets GET /dashboard/tickets?search=&status=&category=&priority=.
func (h *Handler) ListTickets(c *fiber.Ctx) error {
	spec := query.Spec{
		SearchTerm:     c.Query("search"),
		StatusFilter:   c.Query("status"),
		CategoryFilter: c.Query("category"),
		PriorityFilter: c.Query("priority"),
	}
	return c.JSON(h.listView(spec))
}

// Refresh POST /dashboard/refresh reloads the first page.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	if !h.loading.CompareAndSwap(false, true) {
		return apperrors.NewConflict("a refresh is already in progress", nil)
	}
	defer h.loading.Store(false)

	if err := h.store.LoadFirstPage(c.UserContext()); err != nil {
		return toDomainError(err)
	}
	return c.JSON(h.listView(query.Spec{}))
}

// LoadMore POST /dashboard/more appends the next page. A failed page ends
// pagination and is reported in the view's error field instead of failing the request.
func (h *Handler) LoadMore(c *fiber.Ctx) error {
	if err := h.store.LoadNextPage(c.UserContext()); err != nil {
		h.logger.Warn("load more failed", zap.Error(err))
	}
	return c.JSON(h.listView(query.Spec{}))
}

// CreateTicket POST /dashboard/tickets.
func (h *Handler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.workflow.Submit(c.UserContext(), req.Problem)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(CreateView{
		Ticket:   ticketView(result.Ticket, h.now()),
		Degraded: result.Degraded,
		Reason:   result.Reason,
	})
}

// UpdateTicket PATCH /dashboard/tickets/:id.
func (h *Handler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := req.ToPatch()
	if patch.IsEmpty() {
		return apperrors.NewValidationError("no fields to update", nil)
	}
	ticket, err := h.store.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return toDomainError(err)
	}
	return c.JSON(ticketView(ticket, h.now()))
}

// ListCategories GET /dashboard/categories.
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// CreateCategory POST /dashboard/categories.
func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.catalog.Add(c.UserContext(), req.Name, req.Solutions)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(category)
}

// DeleteCategory DELETE /dashboard/categories/:id.
func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	category, err := h.catalog.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(category)
}

func (h *Handler) listView(spec query.Spec) ListView {
	all := h.store.Tickets()
	filtered := query.Apply(all, spec)
	now := h.now()

	views := make([]TicketView, 0, len(filtered))
	for _, t := range filtered {
		views = append(views, ticketView(t, now))
	}
	view := ListView{
		Tickets: views,
		Total:   len(all),
		Shown:   len(views),
		HasMore: h.store.HasMore(),
		Loading: h.loading.Load(),
		Filters: FilterOptions{
			Status:   query.StatusOptions(),
			Category: query.CategoryOptions(all),
			Priority: query.PriorityOptions(),
		},
	}
	if err := h.store.Err(); err != nil {
		view.Error = err.Error()
	}
	return view
}

