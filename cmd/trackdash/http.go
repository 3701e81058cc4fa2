package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/tawheedrony/17TrackDashboard/internal/ingest"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
	"github.com/tawheedrony/17TrackDashboard/internal/services/batch"
	"github.com/tawheedrony/17TrackDashboard/internal/storage/pgreport"
)

type reportService interface {
	Run(ctx context.Context, orders []models.OrderRow) (*models.Report, error)
	GetReport(ctx context.Context, reportID uint64) (*pgreport.ReportMeta, error)
	ListReportRows(ctx context.Context, reportID uint64, limit, offset int) ([]models.ReconciledRow, error)
}

type httpOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	svc   reportService
	stats func() batch.Stats
}

type runResponse struct {
	ReportID     uint64            `json:"report_id"`
	RowCount     int               `json:"row_count"`
	Summary      models.RunSummary `json:"summary"`
	ReportURL    string            `json:"report_url"`
	DashboardURL string            `json:"dashboard_url"`
}

func newRouter(opts httpOpts) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.stats == nil {
			_, _ = w.Write([]byte(`{"error":"stats not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.stats())
	})

	r.Post("/reports", func(w http.ResponseWriter, r *http.Request) {
		file, hdr, err := r.FormFile("export")
		if err != nil {
			writeError(w, http.StatusBadRequest, "export file is required")
			return
		}
		defer file.Close()

		if err := ingest.ValidateName(hdr.Filename); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		orders, err := ingest.ReadOrders(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rep, err := opts.svc.Run(r.Context(), orders)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(runResponse{
			ReportID:     rep.ID,
			RowCount:     len(rep.Rows),
			Summary:      rep.Summary,
			ReportURL:    rep.ReportURL,
			DashboardURL: rep.DashboardURL,
		})
	})

	r.Get("/reports/{reportID}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "reportID"), 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "invalid report id")
			return
		}
		meta, err := opts.svc.GetReport(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if meta == nil {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"report_id":     meta.ID,
			"created_at":    meta.CreatedAt,
			"row_count":     meta.RowCount,
			"summary":       meta.Summary,
			"dashboard_url": meta.DashboardURL,
		})
	})

	r.Get("/reports/{reportID}/rows", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "reportID"), 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "invalid report id")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		rows, err := opts.svc.ListReportRows(r.Context(), id, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	// Swagger with no-cache + cachebuster, same trick as the worker HTTP
	// surface this router grew out of.
	if opts.swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.swaggerPath)
		})

		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	return r
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func runHTTPServer(ctx context.Context, opts httpOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newRouter(opts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	return srv.Serve(lis)
}
