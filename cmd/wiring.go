package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/discovery"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/scorer"
	"github.com/sells-group/outreach-cli/internal/store"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/crustdata"
	"github.com/sells-group/outreach-cli/pkg/sendgrid"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "outreach.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initCrust() crustdata.Client {
	opts := []crustdata.Option{}
	if cfg.Crust.BaseURL != "" {
		opts = append(opts, crustdata.WithBaseURL(cfg.Crust.BaseURL))
	}
	if cfg.Crust.RateLimit > 0 {
		burst := int(cfg.Crust.RateLimit)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, crustdata.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Crust.RateLimit), burst)))
	}
	return crustdata.NewClient(cfg.Crust.Token, opts...)
}

// loadWeights resolves scoring weights: explicit path wins, then the
// configured weights file, then the built-in defaults.
func loadWeights(path string) (scorer.Weights, error) {
	if path == "" {
		path = cfg.Search.WeightsFile
	}
	if path == "" {
		return scorer.DefaultWeights(), nil
	}
	return scorer.LoadWeights(path)
}

func initDiscovery(st store.Store, weightsPath string) (*discovery.Service, error) {
	w, err := loadWeights(weightsPath)
	if err != nil {
		return nil, err
	}

	opts := []discovery.Option{
		discovery.WithWorkers(cfg.Search.Workers),
		discovery.WithPages(cfg.Search.Pages),
		discovery.WithResultLimit(cfg.Search.ResultLimit),
	}
	if st != nil {
		opts = append(opts, discovery.WithRunLogger(st), discovery.WithCompanyCache(st))
	}

	sc := scorer.New(w).WithReferenceYear(cfg.Search.ReferenceYear)
	return discovery.NewService(initCrust(), sc, opts...), nil
}

// initSender builds the outreach sender. Returns nil when the Anthropic or
// SendGrid credentials are absent so callers can degrade instead of failing.
func initSender(st store.Store) *outreach.Sender {
	if cfg.Anthropic.Key == "" || cfg.SendGrid.Key == "" {
		return nil
	}

	generator := outreach.NewGenerator(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	mail := sendgrid.NewClient(cfg.SendGrid.Key)

	var logger outreach.EmailLogger
	if st != nil {
		logger = st
	}

	return outreach.NewSender(generator, mail, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, logger)
}
