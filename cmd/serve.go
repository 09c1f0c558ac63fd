package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/choropleth"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/classify"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/observability"
)

var servePort int

// layerSources names the datasets each map layer joins.
var layerSources = map[string][]string{
	"population":  {metric.Population.Name},
	"gdp":         {metric.GDP.Name},
	"opportunity": {metric.Population.Name, metric.GDP.Name},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve enriched county layers over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		metrics := observability.NewMetrics()
		opener := newOpener(cfg)
		datasets := []metric.Dataset{metric.Population, metric.GDP}

		srv := newLayerServer(metrics, func(ctx context.Context) (*inputs, error) {
			return loadInputs(ctx, cfg, opener, datasets)
		})
		if err := srv.refresh(ctx); err != nil {
			return err
		}

		if every := time.Duration(cfg.Server.RefreshMinutes) * time.Minute; every > 0 {
			go srv.refreshLoop(ctx, every)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.routes(cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// layerSet is one immutable snapshot of every enriched layer.
type layerSet struct {
	results  map[string]*choropleth.Result
	loadedAt time.Time
}

// layerServer serves the current layerSet and swaps it on refresh.
type layerServer struct {
	current atomic.Pointer[layerSet]
	metrics *observability.Metrics
	load    func(ctx context.Context) (*inputs, error)
}

func newLayerServer(metrics *observability.Metrics, load func(ctx context.Context) (*inputs, error)) *layerServer {
	return &layerServer{metrics: metrics, load: load}
}

// refresh reloads inputs and rebuilds every layer. On error the previous
// snapshot stays in place.
func (s *layerServer) refresh(ctx context.Context) error {
	in, err := s.load(ctx)
	if err != nil {
		return eris.Wrap(err, "serve: load inputs")
	}
	for name, n := range in.Records {
		s.metrics.ObserveSource(name, n)
	}

	set, err := buildLayers(in, s.metrics)
	if err != nil {
		return err
	}
	s.current.Store(set)

	zap.L().Info("layers refreshed",
		zap.Int("layers", len(set.results)),
		zap.Int("features", len(in.Collection.Features)),
	)
	return nil
}

func (s *layerServer) refreshLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				zap.L().Error("layer refresh failed, keeping previous layers", zap.Error(err))
			}
		}
	}
}

// buildLayers runs the pipeline once per layer over the sources it needs.
// Layers whose datasets were not loaded are left out.
func buildLayers(in *inputs, metrics *observability.Metrics) (*layerSet, error) {
	bySource := make(map[string]choropleth.Source, len(in.Sources))
	for _, src := range in.Sources {
		bySource[src.Dataset.Name] = src
	}

	set := &layerSet{results: make(map[string]*choropleth.Result), loadedAt: time.Now().UTC()}
	for layer, names := range layerSources {
		var sources []choropleth.Source
		for _, n := range names {
			if src, ok := bySource[n]; ok {
				sources = append(sources, src)
			}
		}
		if len(sources) != len(names) {
			continue
		}

		start := time.Now()
		res, err := choropleth.Run(in.Collection, sources, choropleth.WithObserver(metrics))
		if err != nil {
			return nil, eris.Wrapf(err, "serve: build layer %s", layer)
		}
		metrics.ObserveRun(time.Since(start))
		set.results[layer] = res
	}
	return set, nil
}

func (s *layerServer) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/counties/{layer}", s.handleLayer)
		r.Get("/counties/{layer}/diagnostics", s.handleDiagnostics)
		r.Get("/legend/{layer}", handleLegend)
	})
	return r
}

// requestLogger tags each request with an ID, logs it, and records its
// duration by route pattern.
func (s *layerServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(ww.Status())).Observe(elapsed.Seconds())

		zap.L().Debug("http request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", elapsed),
		)
	})
}

func (s *layerServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	set := s.current.Load()
	if set == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"layers":   len(set.results),
		"loadedAt": set.loadedAt.Format(time.RFC3339),
	})
}

func (s *layerServer) result(w http.ResponseWriter, r *http.Request) (*choropleth.Result, bool) {
	layer := chi.URLParam(r, "layer")
	set := s.current.Load()
	if set == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "layers not loaded"})
		return nil, false
	}
	res, ok := set.results[layer]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown layer %q", layer)})
		return nil, false
	}
	return res, true
}

func (s *layerServer) handleLayer(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := geo.Encode(w, res.Collection); err != nil {
		zap.L().Warn("encode layer", zap.Error(err))
	}
}

func (s *layerServer) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	res, ok := s.result(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Diagnostics)
}

func handleLegend(w http.ResponseWriter, r *http.Request) {
	entries, err := classify.Legend(chi.URLParam(r, "layer"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
