package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResponse() *model.SearchResponse {
	return &model.SearchResponse{
		Companies: []model.CompanyRecord{
			{Name: "Acme", Domain: "acme.io", Score: 0.95},
			{Name: "Globex", Domain: "globex.com", Score: 0.72},
		},
		TotalFound:   12,
		SearchTimeMS: 840,
		ICP: model.ICP{
			Industries:   []string{"Fintech"},
			RevenueMin:   10_000_000,
			RevenueMax:   100_000_000,
			HeadcountMin: 100,
			HeadcountMax: 1000,
		},
	}
}

func TestLogSearchAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LogSearch(ctx, sampleResponse()))

	runs, err := s.ListSearchRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 12, run.TotalFound)
	assert.Equal(t, 2, run.Returned)
	assert.InDelta(t, 0.95, run.TopScore, 0.0001)
	assert.Equal(t, 840, run.SearchTimeMS)
	assert.Equal(t, []string{"Fintech"}, run.ICP.Industries)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestLogSearchEmptyResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	resp := sampleResponse()
	resp.Companies = nil
	resp.TotalFound = 0
	require.NoError(t, s.LogSearch(ctx, resp))

	runs, err := s.ListSearchRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Zero(t, runs[0].Returned)
	assert.Zero(t, runs[0].TopScore)
}

func TestListSearchRunsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.LogSearch(ctx, sampleResponse()))
	}

	runs, err := s.ListSearchRuns(ctx, RunFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestLogEmailAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LogEmail(ctx, model.EmailLog{
		Recipient: "jordan@acme.io",
		Company:   "Acme",
		Subject:   "Quick question",
		Sent:      true,
	}))
	require.NoError(t, s.LogEmail(ctx, model.EmailLog{
		Recipient: "sam@globex.com",
		Company:   "Globex",
		Subject:   "Hello",
		Sent:      false,
		Error:     "sendgrid: unexpected status 401",
	}))

	all, err := s.ListEmailLogs(ctx, EmailFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forJordan, err := s.ListEmailLogs(ctx, EmailFilter{Recipient: "jordan@acme.io"})
	require.NoError(t, err)
	require.Len(t, forJordan, 1)
	assert.True(t, forJordan[0].Sent)
	assert.Empty(t, forJordan[0].Error)
	assert.NotEmpty(t, forJordan[0].ID)

	forSam, err := s.ListEmailLogs(ctx, EmailFilter{Recipient: "sam@globex.com"})
	require.NoError(t, err)
	require.Len(t, forSam, 1)
	assert.False(t, forSam[0].Sent)
	assert.Contains(t, forSam[0].Error, "401")
}

func TestCacheCompanyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := model.CompanyRecord{
		Name:       "Acme",
		Domain:     "acme.io",
		Headcount:  300,
		Revenue:    50_000_000,
		Industries: []string{"Fintech", "Payments"},
	}
	require.NoError(t, s.CacheCompany(ctx, rec))

	got, err := s.CachedCompany(ctx, "acme.io")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Headcount, got.Headcount)
	assert.Equal(t, rec.Industries, got.Industries)
}

func TestCacheCompanyUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CacheCompany(ctx, model.CompanyRecord{Name: "Acme", Domain: "acme.io", Headcount: 300}))
	require.NoError(t, s.CacheCompany(ctx, model.CompanyRecord{Name: "Acme Inc", Domain: "acme.io", Headcount: 320}))

	got, err := s.CachedCompany(ctx, "acme.io")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Inc", got.Name)
	assert.Equal(t, 320, got.Headcount)
}

func TestCachedCompanyMiss(t *testing.T) {
	s := newTestStore(t)

	got, err := s.CachedCompany(context.Background(), "nosuch.io")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheCompanyRequiresDomain(t *testing.T) {
	s := newTestStore(t)

	err := s.CacheCompany(context.Background(), model.CompanyRecord{Name: "No Domain"})
	require.Error(t, err)
}
