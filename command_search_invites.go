package invites

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SearchInvitesMessage struct {
	SortField  string `json:"sort_field"`
	SortOrder  string `json:"sort_order"`
	Skip       int    `json:"skip"`
	Limit      int    `json:"limit"`
	OnResponse func(resp *SearchInvitesResponse)
}

func (e SearchInvitesMessage) Type() string { return "invite.search" }

type SearchInvitesResponse struct {
	Result  *SearchResult
	Success bool
}

// SearchInvitesHandler pages over non-revoked invites. Store failures
// propagate verbatim; there are no other error conditions here.
type SearchInvitesHandler struct {
	repo RepositoryManager
}

func (h *SearchInvitesHandler) Execute(ctx context.Context, event SearchInvitesMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invite search",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SearchInvitesHandler) execute(ctx context.Context, event SearchInvitesMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	result, err := h.repo.Invites().Search(ctx, SearchParams{
		SortField: event.SortField,
		SortOrder: event.SortOrder,
		Skip:      event.Skip,
		Limit:     event.Limit,
	})
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&SearchInvitesResponse{
			Result:  result,
			Success: true,
		})
	}

	return nil
}
