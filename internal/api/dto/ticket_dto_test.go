package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

func TestPageDecodeAppliesDefaults(t *testing.T) {
	raw := `{"tickets":[{"id":"abc","problem":"Refund missing"},{"id":"def","problem":"x","category":"payment","priority":"high","status":"resolved"}]}`

	var resp TicketPageResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	page := resp.ToDomain()

	require.False(t, page.HasMore())
	require.Len(t, page.Tickets, 2)
	require.Equal(t, domain.DefaultCategory, page.Tickets[0].Category)
	require.Equal(t, domain.TicketPriorityMedium, page.Tickets[0].Priority)
	require.Equal(t, domain.TicketStatusOpen, page.Tickets[0].Status)
	require.Equal(t, "payment", page.Tickets[1].Category)
}

func TestPageTokenPassesThroughVerbatim(t *testing.T) {
	raw := `{"tickets":[],"next_page_token":"eyJvIjoyMH0="}`

	var resp TicketPageResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	page := resp.ToDomain()
	require.Equal(t, "eyJvIjoyMH0=", page.NextPageToken)

	encoded, err := json.Marshal(PageFromDomain(page))
	require.NoError(t, err)
	require.JSONEq(t, raw, string(encoded))
}

func TestEmptyTokenOmitted(t *testing.T) {
	encoded, err := json.Marshal(PageFromDomain(domain.Page{}))
	require.NoError(t, err)
	require.JSONEq(t, `{"tickets":[]}`, string(encoded))
}
