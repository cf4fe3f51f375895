package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/scitix/contactmerge/internal/triage"
)

const shutdownTimeout = 5 * time.Second

// StatusFunc returns the report of the last finished run, nil before the
// first one.
type StatusFunc func() *triage.Report

// NewHandler serves the run metrics on /metrics, a liveness probe on /healthz
// and the last run report on /status, all below routePrefix.
func NewHandler(routePrefix string, reg *prometheus.Registry, status StatusFunc) http.Handler {
	mux := http.NewServeMux()
	routePrefix = strings.TrimSuffix(routePrefix, "/")

	// Setup the prometheus metrics machinery
	if err := reg.Register(collectors.NewBuildInfoCollector()); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			klog.ErrorS(err, "Failed to register build info collector")
		}
	}
	mux.Handle(routePrefix+"/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))

	mux.HandleFunc(routePrefix+"/healthz", func(rw http.ResponseWriter, r *http.Request) {
		_ = EncodeResponse(rw, CommonResponse{Code: OK, Message: CodeMap[OK]})
	})

	mux.HandleFunc(routePrefix+"/status", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			_ = EncodeResponse(rw, CommonResponse{Code: RequestParamError, Message: CodeMap[RequestParamError]})
			return
		}

		report := status()
		resp := StatusResponse{
			CommonResponse: CommonResponse{Code: OK, Message: CodeMap[OK]},
			Report:         report,
		}
		if report == nil {
			resp.Message = "No run finished yet"
		}
		if err := EncodeResponse(rw, resp); err != nil {
			klog.ErrorS(err, "Failed to encode status response")
		}
	})

	return mux
}

// RunHttpServer serves handler on port until ctx is done.
func RunHttpServer(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.Infof("Starting http server on port %s", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
