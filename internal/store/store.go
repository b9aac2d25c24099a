// Package store persists search history, outreach email logs, and company
// snapshots, on either SQLite or PostgreSQL.
package store

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/model"
)

// RunFilter specifies criteria for listing search runs.
type RunFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// EmailFilter specifies criteria for listing email logs.
type EmailFilter struct {
	Recipient string `json:"recipient,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the outreach workflow.
type Store interface {
	// Search history
	LogSearch(ctx context.Context, resp *model.SearchResponse) error
	ListSearchRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error)

	// Email log
	LogEmail(ctx context.Context, log model.EmailLog) error
	ListEmailLogs(ctx context.Context, filter EmailFilter) ([]model.EmailLog, error)

	// Company snapshots
	CacheCompany(ctx context.Context, rec model.CompanyRecord) error
	CachedCompany(ctx context.Context, domain string) (*model.CompanyRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
