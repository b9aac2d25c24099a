package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/discovery"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/outreach"
)

const apiVersion = "1.0.0"

// availableIndustries is the curated list offered for ICP selection.
var availableIndustries = []string{
	"Technology",
	"Software",
	"Fintech",
	"E-commerce",
	"SaaS",
	"Healthcare",
	"Manufacturing",
	"Retail",
	"Consulting",
	"Marketing",
	"Education",
	"Real Estate",
	"Transportation",
	"Energy",
	"Media",
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prospecting API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		svc, err := initDiscovery(st, "")
		if err != nil {
			return err
		}

		sender := initSender(st)
		if sender == nil {
			zap.L().Warn("email credentials missing, POST /send-email disabled")
		}

		router := buildRouter(svc, sender, cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter assembles the API routes. A nil sender disables the send
// endpoint with 503 rather than failing at startup.
func buildRouter(svc *discovery.Service, sender *outreach.Sender, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Outreach Workflow API",
			"status":  "running",
			"version": apiVersion,
			"endpoints": []string{
				"/health",
				"/industries",
				"/search-companies",
				"/company/{domain}",
				"/company/{domain}/people",
				"/send-email",
			},
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/industries", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"industries": availableIndustries})
	})

	r.Post("/search-companies", func(w http.ResponseWriter, req *http.Request) {
		var icp model.ICP
		if err := json.NewDecoder(req.Body).Decode(&icp); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Search(req.Context(), icp)
		if err != nil {
			zap.L().Error("search failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "company search failed")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/company/{domain}", func(w http.ResponseWriter, req *http.Request) {
		domain := chi.URLParam(req, "domain")

		rec, err := svc.CompanyByDomain(req.Context(), domain)
		if err != nil {
			if errors.Is(err, discovery.ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("company not found: %s", domain))
				return
			}
			zap.L().Error("company lookup failed", zap.String("domain", domain), zap.Error(err))
			writeError(w, http.StatusBadGateway, "company lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Get("/company/{domain}/people", func(w http.ResponseWriter, req *http.Request) {
		domain := chi.URLParam(req, "domain")
		companyName := req.URL.Query().Get("company_name")

		people, err := svc.DecisionMakers(req.Context(), companyName, domain)
		if err != nil {
			zap.L().Error("people search failed", zap.String("domain", domain), zap.Error(err))
			writeError(w, http.StatusBadGateway, "people search failed")
			return
		}
		if people == nil {
			people = []model.DecisionMaker{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"domain":          domain,
			"decision_makers": people,
			"total_found":     len(people),
		})
	})

	r.Post("/send-email", func(w http.ResponseWriter, req *http.Request) {
		if sender == nil {
			writeError(w, http.StatusServiceUnavailable, "email delivery is not configured")
			return
		}

		var emailReq model.EmailRequest
		if err := json.NewDecoder(req.Body).Decode(&emailReq); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if emailReq.Recipient == "" {
			writeError(w, http.StatusBadRequest, "recipient is required")
			return
		}
		if emailReq.ProductGoal == "" || emailReq.ProfileText == "" {
			writeError(w, http.StatusBadRequest, "product_goal and profile_text are required")
			return
		}

		result, err := sender.Send(req.Context(), emailReq)
		if err != nil {
			zap.L().Error("email send failed", zap.String("recipient", emailReq.Recipient), zap.Error(err))
			writeError(w, http.StatusBadGateway, "email send failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
