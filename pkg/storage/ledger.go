package storage

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
)

// ErrInvalidRecord is returned when a usage record lacks its ID.
var ErrInvalidRecord = errors.New("usage record has no id")

// Page size limits for ListUsage.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UsageRecord is the token accounting of one finished exchange.
type UsageRecord struct {
	ID               string          `json:"id"`
	RequestID        string          `json:"request_id"`
	Account          string          `json:"account,omitempty"`
	Provider         string          `json:"provider"`
	Model            string          `json:"model"`
	Streamed         bool            `json:"streamed"`
	Outcome          api.StreamState `json:"outcome"`
	FinishReasons    []string        `json:"finish_reasons,omitempty"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewUsageRecord derives a record from a finished exchange. resp may be nil
// or partial for exchanges that did not complete; its usage, when reported,
// is recorded regardless of outcome.
func NewUsageRecord(requestID, provider string, streamed bool, outcome api.StreamState, resp *api.Response) UsageRecord {
	rec := UsageRecord{
		ID:        api.NewUsageID(),
		RequestID: requestID,
		Provider:  provider,
		Streamed:  streamed,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	}
	if resp == nil {
		return rec
	}
	rec.Model = resp.Model
	rec.FinishReasons = resp.FinishReasons()
	if resp.Usage != nil {
		rec.PromptTokens = resp.Usage.PromptTokens
		rec.CompletionTokens = resp.Usage.CompletionTokens
		rec.TotalTokens = resp.Usage.TotalTokens
	}
	return rec
}

// ListOptions filters and pages ListUsage results. Provider, Model and
// Since narrow the result; After continues after the record with that ID.
type ListOptions struct {
	Provider string
	Model    string
	Since    time.Time
	After    string
	Limit    int
	// Order is "asc" or "desc" by creation time. Default is "desc".
	Order string
}

// PageSize returns the effective limit.
func (o ListOptions) PageSize() int {
	switch {
	case o.Limit <= 0:
		return DefaultPageSize
	case o.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return o.Limit
	}
}

// Matches reports whether rec passes the filters of o.
func (o ListOptions) Matches(rec *UsageRecord) bool {
	if o.Provider != "" && rec.Provider != o.Provider {
		return false
	}
	if o.Model != "" && rec.Model != o.Model {
		return false
	}
	if !o.Since.IsZero() && rec.CreatedAt.Before(o.Since) {
		return false
	}
	return true
}

// UsageList is one page of records.
type UsageList struct {
	Data    []UsageRecord `json:"data"`
	HasMore bool          `json:"has_more"`
	FirstID string        `json:"first_id,omitempty"`
	LastID  string        `json:"last_id,omitempty"`
}

// Totals aggregates the records matching a filter.
type Totals struct {
	Requests         int64 `json:"requests"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Add folds rec into t.
func (t *Totals) Add(rec *UsageRecord) {
	t.Requests++
	t.PromptTokens += int64(rec.PromptTokens)
	t.CompletionTokens += int64(rec.CompletionTokens)
	t.TotalTokens += int64(rec.TotalTokens)
}

// UsageStore persists usage records. Implementations scope every operation
// to the account in the context, if any.
type UsageStore interface {
	SaveUsage(ctx context.Context, rec UsageRecord) error
	GetUsage(ctx context.Context, id string) (UsageRecord, error)
	ListUsage(ctx context.Context, opts ListOptions) (*UsageList, error)
	// Totals ignores the paging fields of opts.
	Totals(ctx context.Context, opts ListOptions) (Totals, error)
	Close() error
}

// NewList builds a page from records already filtered and ordered, applying
// the After cursor and the page size.
func NewList(records []UsageRecord, opts ListOptions) *UsageList {
	if opts.After != "" {
		idx := slices.IndexFunc(records, func(r UsageRecord) bool { return r.ID == opts.After })
		if idx >= 0 {
			records = records[idx+1:]
		} else {
			records = nil
		}
	}

	limit := opts.PageSize()
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	list := &UsageList{Data: records, HasMore: hasMore}
	if len(records) > 0 {
		list.FirstID = records[0].ID
		list.LastID = records[len(records)-1].ID
	}
	if list.Data == nil {
		list.Data = []UsageRecord{}
	}
	return list
}
