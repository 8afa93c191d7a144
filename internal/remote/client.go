package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Client talks to the ticket API over HTTP.
type Client struct {
	baseURL  string
	timeout  time.Duration
	pageSize int
	logger   *zap.Logger
}

// NewClient builds a client for the configured ticket API.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.RequestTimeout(),
		pageSize: cfg.PageSize,
		logger:   logger,
	}
}

// FetchTickets returns the page identified by pageToken; an empty token asks for the first page.
func (c *Client) FetchTickets(ctx context.Context, pageToken string) (domain.Page, error) {
	query := url.Values{}
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}
	if c.pageSize > 0 {
		query.Set("page_size", strconv.Itoa(c.pageSize))
	}
	endpoint := c.baseURL + "/tickets"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var resp dto.TicketPageResponse
	if err := c.do(ctx, fiber.Get(endpoint), &resp); err != nil {
		return domain.Page{}, err
	}
	return resp.ToDomain(), nil
}

// CreateTicket submits a problem for classification and returns the stored ticket.
func (c *Client) CreateTicket(ctx context.Context, problem string) (domain.Ticket, error) {
	agent := fiber.Post(c.baseURL + "/tickets").JSON(dto.CreateTicketRequest{Problem: problem})

	var resp dto.TicketResponse
	if err := c.do(ctx, agent, &resp); err != nil {
		return domain.Ticket{}, err
	}
	return resp.ToDomain(), nil
}

// UpdateTicket patches a ticket and returns the server's canonical copy.
func (c *Client) UpdateTicket(ctx context.Context, id string, patch domain.TicketPatch) (domain.Ticket, error) {
	agent := fiber.Patch(c.baseURL + "/tickets/" + url.PathEscape(id)).JSON(dto.PatchFromDomain(patch))

	var resp dto.TicketResponse
	if err := c.do(ctx, agent, &resp); err != nil {
		return domain.Ticket{}, err
	}
	return resp.ToDomain(), nil
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		c.logger.Warn("ticket api request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return decodeStatusError(code, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode ticket api response: %w", err)
	}
	return nil
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

func decodeStatusError(code int, body []byte) error {
	statusErr := &StatusError{StatusCode: code, Message: http.StatusText(code)}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return statusErr
	}
	switch {
	case envelope.Error != nil:
		statusErr.Code = envelope.Error.Code
		if envelope.Error.Message != "" {
			statusErr.Message = envelope.Error.Message
		}
	case envelope.Detail != "":
		statusErr.Message = envelope.Detail
	}
	return statusErr
}
