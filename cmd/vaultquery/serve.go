package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/configuration"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/metrics"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/repository"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve derived queries over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context(), listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "address to listen on")
	return cmd
}

func (a *app) serve(ctx context.Context, listen string) error {
	server := &http.Server{
		Addr:              listen,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		a.log.Info().Str("listen", listen).Msg("serving queries")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	queries := queryHandler(a.repos, a.log)
	mux.Handle("GET /query", queries)
	mux.Handle("DELETE /query", queries)
	if a.registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(a.registry))
	}
	return mux
}

// queryHandler serves /query?entity=E&method=M&sort=id,desc&arg=v1&arg=v2.
// Delete methods are accepted on DELETE only, every other method on GET only.
func queryHandler(repos *configuration.Repositories, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logger.WithRequestID(r.Context(), requestID)
		if correlationID := r.Header.Get("X-Correlation-ID"); correlationID != "" {
			ctx = logger.WithCorrelationID(ctx, correlationID)
		}
		reqLog := log.WithContext(ctx)

		params := r.URL.Query()
		inv := invocation{
			entity: params.Get("entity"),
			method: params.Get("method"),
			args:   parseValues(params["arg"]),
		}
		if inv.entity == "" || inv.method == "" {
			writeError(w, http.StatusBadRequest, errors.New("entity and method are required"))
			return
		}
		sort, err := query.ParseSort(params.Get("sort"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		inv.sort = sort

		tree, err := query.ParsePartTree(inv.method)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if allowed := allowedMethod(tree.Action()); r.Method != allowed {
			w.Header().Set("Allow", allowed)
			writeError(w, http.StatusMethodNotAllowed, errors.Errorf("%s requires %s", inv.method, allowed))
			return
		}

		res, err := execute(ctx, repos, inv)
		if err != nil {
			status := statusOf(err)
			reqLog.Warn().Err(err).Str("method", inv.method).Int("status", status).Msg("query failed")
			writeError(w, status, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", requestID)
		if err := json.NewEncoder(w).Encode(res.payload()); err != nil {
			reqLog.Error().Err(err).Msg("encode response")
		}
	})
}

func allowedMethod(action query.Action) string {
	if action == query.ActionDelete {
		return http.MethodDelete
	}
	return http.MethodGet
}

func statusOf(err error) int {
	var (
		method      *query.MethodNameError
		unsupported *query.UnsupportedOperatorError
		exhausted   *query.ParameterExhaustionError
		invalid     *query.InvalidParameterError
		pattern     *query.PatternCompilationError
		mismatch    *repository.ActionMismatchError
		arguments   *repository.ArgumentCountError
	)
	switch {
	case errors.As(err, &method), errors.As(err, &unsupported), errors.As(err, &exhausted),
		errors.As(err, &invalid), errors.As(err, &pattern), errors.As(err, &mismatch),
		errors.As(err, &arguments):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
