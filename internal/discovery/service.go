// Package discovery runs the ICP search pipeline: build provider filters,
// screen companies, normalize the payloads, score against the ICP, and rank.
package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/filter"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
	"github.com/sells-group/outreach-cli/internal/scorer"
	"github.com/sells-group/outreach-cli/pkg/crustdata"
)

const (
	// screenPageSize is the provider's page size for screening calls.
	screenPageSize = 50

	// maxDecisionMakers caps the people returned per company.
	maxDecisionMakers = 5

	minWorkers = 2
	maxWorkers = 4
)

// companyFields is the projection requested on company lookups.
var companyFields = []string{
	"company_name",
	"company_website_domain",
	"headcount.linkedin_headcount",
	"estimated_revenue_lower_bound_usd",
	"headquarters",
	"year_founded",
	"taxonomy.linkedin_industries",
	"taxonomy.crunchbase_categories",
}

// RunLogger records completed searches. Implemented by the store; nil
// disables logging.
type RunLogger interface {
	LogSearch(ctx context.Context, resp *model.SearchResponse) error
}

// CompanyCache holds normalized company snapshots. Lookups write through
// to it, and a cached snapshot is served when the provider is unreachable.
// Implemented by the store; nil disables caching.
type CompanyCache interface {
	CacheCompany(ctx context.Context, rec model.CompanyRecord) error
	CachedCompany(ctx context.Context, domain string) (*model.CompanyRecord, error)
}

// Service orchestrates company and people discovery.
type Service struct {
	crust   crustdata.Client
	scorer  *scorer.Scorer
	workers int
	pages   int
	limit   int
	runs    RunLogger
	cache   CompanyCache
}

// Option configures the Service.
type Option func(*Service)

// WithWorkers sets the screen fan-out concurrency, clamped to [2, 4].
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n < minWorkers {
			n = minWorkers
		}
		if n > maxWorkers {
			n = maxWorkers
		}
		s.workers = n
	}
}

// WithPages sets how many provider pages each search fetches.
func WithPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pages = n
		}
	}
}

// WithResultLimit sets how many ranked companies a search returns.
func WithResultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithRunLogger sets the search-run recorder.
func WithRunLogger(runs RunLogger) Option {
	return func(s *Service) {
		s.runs = runs
	}
}

// WithCompanyCache sets the company snapshot cache.
func WithCompanyCache(cache CompanyCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// NewService creates a discovery Service.
func NewService(crust crustdata.Client, sc *scorer.Scorer, opts ...Option) *Service {
	s := &Service{
		crust:   crust,
		scorer:  sc,
		workers: minWorkers,
		pages:   1,
		limit:   scorer.DefaultResultLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search discovers companies matching the ICP, scores them, and returns the
// ranked top slice. Provider failures degrade to an empty result set; a
// search never errors on upstream trouble.
func (s *Service) Search(ctx context.Context, icp model.ICP) (*model.SearchResponse, error) {
	start := time.Now()

	records := s.screen(ctx, icp)
	scored := s.scorer.ScoreAll(records, icp)
	ranked := scorer.Rank(scored, s.limit)

	// Scoring sees the full tag union; the response carries the capped list.
	for i := range ranked {
		ranked[i].Industries = normalize.DisplayIndustries(ranked[i].Industries)
	}

	resp := &model.SearchResponse{
		Companies:    ranked,
		TotalFound:   len(scored),
		SearchTimeMS: int(time.Since(start).Milliseconds()),
		ICP:          icp,
	}

	zap.L().Info("company search complete",
		zap.Strings("industries", icp.Industries),
		zap.Int("total_found", resp.TotalFound),
		zap.Int("returned", len(ranked)),
		zap.Int("search_time_ms", resp.SearchTimeMS),
	)

	s.logRun(ctx, resp)
	return resp, nil
}

// screen fetches the configured number of provider pages concurrently and
// normalizes them. Page order is preserved so ranking stays deterministic
// across runs.
func (s *Service) screen(ctx context.Context, icp model.ICP) []model.CompanyRecord {
	filters := filter.Build(icp)

	type page struct {
		index   int
		records []model.CompanyRecord
	}

	var (
		mu    sync.Mutex
		pages []page
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < s.pages; i++ {
		g.Go(func() error {
			raw, err := s.crust.Screen(gctx, crustdata.ScreenRequest{
				Filters: filters,
				Offset:  i * screenPageSize,
				Count:   screenPageSize,
			})
			if err != nil {
				zap.L().Warn("screen page failed",
					zap.Int("page", i),
					zap.Error(err),
				)
				return nil
			}

			set, err := normalize.Decode(raw)
			if err != nil {
				zap.L().Warn("screen page returned unusable payload",
					zap.Int("page", i),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			pages = append(pages, page{index: i, records: set.Companies()})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(pages, func(a, b int) bool { return pages[a].index < pages[b].index })

	var out []model.CompanyRecord
	for _, p := range pages {
		out = append(out, p.records...)
	}
	return out
}

// CompanyByDomain returns the normalized record for one company, or a
// not-found error when the provider has nothing for the domain.
func (s *Service) CompanyByDomain(ctx context.Context, domain string) (*model.CompanyRecord, error) {
	if domain == "" {
		return nil, eris.New("discovery: domain is required")
	}

	raw, err := s.crust.LookupCompanies(ctx, []string{domain}, companyFields)
	if err != nil {
		if cached := s.cachedCompany(ctx, domain); cached != nil {
			zap.L().Warn("provider lookup failed, serving cached snapshot",
				zap.String("domain", domain),
				zap.Error(err),
			)
			return cached, nil
		}
		return nil, eris.Wrapf(err, "discovery: look up %s", domain)
	}

	set, err := normalize.Decode(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: decode %s", domain)
	}
	if set.Len() == 0 {
		return nil, ErrNotFound
	}

	rec := normalize.Company(set.Records()[0])
	if rec.Domain == "" {
		rec.Domain = domain
	}
	rec.Industries = normalize.DisplayIndustries(rec.Industries)

	if s.cache != nil {
		if err := s.cache.CacheCompany(ctx, rec); err != nil {
			zap.L().Warn("failed to cache company snapshot",
				zap.String("domain", rec.Domain),
				zap.Error(err),
			)
		}
	}
	return &rec, nil
}

// ErrNotFound marks a domain the provider has no record for.
var ErrNotFound = eris.New("discovery: company not found")

// cachedCompany reads the last snapshot for the domain, swallowing cache
// errors so the fallback never masks the provider failure.
func (s *Service) cachedCompany(ctx context.Context, domain string) *model.CompanyRecord {
	if s.cache == nil {
		return nil
	}
	rec, err := s.cache.CachedCompany(ctx, domain)
	if err != nil {
		zap.L().Warn("cache read failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return nil
	}
	return rec
}

// DecisionMakers finds up to 5 leadership contacts at the company.
func (s *Service) DecisionMakers(ctx context.Context, companyName, companyDomain string) ([]model.DecisionMaker, error) {
	filters := filter.BuildPeople(companyName, companyDomain)

	profiles, err := s.crust.SearchPeople(ctx, filters, 1)
	if err != nil {
		zap.L().Warn("people search failed",
			zap.String("company", companyName),
			zap.Error(err),
		)
		return nil, nil
	}

	makers := make([]model.DecisionMaker, 0, len(profiles))
	for _, p := range profiles {
		makers = append(makers, decisionMaker(p, companyName))
		if len(makers) == maxDecisionMakers {
			break
		}
	}

	zap.L().Info("decision makers found",
		zap.String("company", companyName),
		zap.Int("count", len(makers)),
	)
	return makers, nil
}

// decisionMaker maps one people-search profile to a DecisionMaker.
func decisionMaker(p map[string]any, companyName string) model.DecisionMaker {
	title, _ := p["default_position_title"].(string)
	if title == "" {
		title, _ = p["current_title"].(string)
	}

	var email string
	if emails, ok := p["emails"].([]any); ok && len(emails) > 0 {
		email, _ = emails[0].(string)
	}

	isDM, _ := p["default_position_is_decision_maker"].(bool)

	name, _ := p["name"].(string)
	if name == "" {
		name = "Unknown"
	}

	str := func(key string) string {
		v, _ := p[key].(string)
		return v
	}

	return model.DecisionMaker{
		Name:              name,
		Title:             title,
		LinkedinURL:       str("linkedin_profile_url"),
		FlagshipURL:       str("flagship_profile_url"),
		Email:             email,
		Location:          str("location"),
		Headline:          str("headline"),
		ProfilePictureURL: str("profile_picture_url"),
		CompanyName:       companyName,
		IsDecisionMaker:   isDM,
	}
}

func (s *Service) logRun(ctx context.Context, resp *model.SearchResponse) {
	if s.runs == nil {
		return
	}
	if err := s.runs.LogSearch(ctx, resp); err != nil {
		zap.L().Warn("failed to record search run", zap.Error(err))
	}
}
