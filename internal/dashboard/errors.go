package dashboard

import (
	"errors"

	"github.com/spec-kit/ticket-triage/internal/remote"
	"github.com/spec-kit/ticket-triage/internal/store"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// toDomainError maps engine and ticket API failures onto the error envelope.
// Client errors reported by the ticket API keep their status; anything else
// the API did wrong becomes a 502.
func toDomainError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, store.ErrTicketNotFound) {
		return apperrors.NewNotFound("ticket", nil)
	}
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			code := statusErr.Code
			if code == "" {
				code = "UPSTREAM_REJECTED"
			}
			return apperrors.NewDomainError(code, statusErr.Message, statusErr.StatusCode, nil)
		}
		return apperrors.NewUpstreamError(statusErr.Message, err)
	}
	if errors.Is(err, remote.ErrUnavailable) {
		return apperrors.NewUpstreamError("ticket api unavailable", err)
	}
	return apperrors.NewUpstreamError(err.Error(), err)
}
