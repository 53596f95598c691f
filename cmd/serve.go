package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve campaign results over a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the read-only campaign API.
func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/campaigns", func(r chi.Router) {
		r.Get("/", listCampaignsHandler(st))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", campaignHandler(st, func(c *model.Campaign) any { return c }))
			r.Get("/funnel", resultHandler(st, func(res *model.CampaignResult) any {
				return map[string]any{
					"land_acquisition":   res.LandFunnel,
					"contact_processing": res.ContactFunnel,
				}
			}))
			r.Get("/distribution", resultHandler(st, func(res *model.CampaignResult) any {
				return res.Distribution
			}))
			r.Get("/violations", resultHandler(st, func(res *model.CampaignResult) any {
				if res.Violations == nil {
					return []model.ConsistencyViolation{}
				}
				return res.Violations
			}))
		})
	})

	return r
}

func listCampaignsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.CampaignFilter{
			Status: model.CampaignStatus(r.URL.Query().Get("status")),
			Limit:  100,
		}
		campaigns, err := st.ListCampaigns(r.Context(), filter)
		if err != nil {
			zap.L().Error("list campaigns failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if campaigns == nil {
			campaigns = []model.Campaign{}
		}
		writeJSON(w, http.StatusOK, campaigns)
	}
}

func campaignHandler(st store.Store, project func(*model.Campaign) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign, err := fetchCampaign(st, w, r)
		if campaign == nil || err != nil {
			return
		}
		writeJSON(w, http.StatusOK, project(campaign))
	}
}

func resultHandler(st store.Store, project func(*model.CampaignResult) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign, err := fetchCampaign(st, w, r)
		if campaign == nil || err != nil {
			return
		}
		if campaign.Result == nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "campaign has no result yet"})
			return
		}
		writeJSON(w, http.StatusOK, project(campaign.Result))
	}
}

func fetchCampaign(st store.Store, w http.ResponseWriter, r *http.Request) (*model.Campaign, error) {
	id := chi.URLParam(r, "id")
	campaign, err := st.GetCampaign(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "campaign not found"})
		return nil, err
	}
	if err != nil {
		zap.L().Error("get campaign failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return nil, err
	}
	return campaign, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
