// Package router exposes the loader over HTTP in serve mode.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/junkliveoz/FriendBook/internal/gzippedhttp"
	"github.com/junkliveoz/FriendBook/internal/ipchecker"
	"github.com/junkliveoz/FriendBook/internal/loader"
	"github.com/junkliveoz/FriendBook/internal/logger"
	"github.com/junkliveoz/FriendBook/internal/metrics"
	"github.com/junkliveoz/FriendBook/internal/view"
)

type usersLoader interface {
	State() loader.Snapshot
	Load(ctx context.Context) error
}

// Router holds the HTTP handlers.
type Router struct {
	loader usersLoader
}

// Option configures New.
type Option func(*options)

type options struct {
	metrics      *metrics.Metrics
	checker      *ipchecker.IPChecker
	reloadLimit  int
	reloadWindow time.Duration
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithIPChecker restricts POST /api/reload to trusted clients.
func WithIPChecker(checker *ipchecker.IPChecker) Option {
	return func(o *options) {
		o.checker = checker
	}
}

// WithReloadLimit allows limit reload requests per client IP within window.
func WithReloadLimit(limit int, window time.Duration) Option {
	return func(o *options) {
		o.reloadLimit = limit
		o.reloadWindow = window
	}
}

// New builds the chi router.
func New(usersLoader usersLoader, optionsProto ...Option) *chi.Mux {
	opts := &options{
		reloadLimit:  10,
		reloadWindow: time.Minute,
	}
	for _, protoOption := range optionsProto {
		protoOption(opts)
	}

	myRouter := &Router{loader: usersLoader}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		opts.metrics.Middleware,
	)

	router.Get(`/ping`, myRouter.GetPing)
	router.Handle(`/metrics`, opts.metrics.Handler())

	router.Route(`/api`, func(r chi.Router) {
		r.Use(gzippedhttp.GzipResponse)

		r.Get(`/users`, myRouter.GetAPIUsers)
		r.Get(`/users/{id}`, myRouter.GetAPIUser)

		reload := r.With(httprate.Limit(
			opts.reloadLimit,
			opts.reloadWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		if opts.checker != nil {
			reload = reload.With(opts.checker.Middleware)
		}
		reload.Post(`/reload`, myRouter.PostAPIReload)
	})

	return router
}

// GetPing answers 200 while the process is up.
func (router *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
}

// GetAPIUsers returns the current snapshot.
func (router *Router) GetAPIUsers(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, view.NewStateResponse(router.loader.State()))
}

// GetAPIUser returns one user of the current collection with friends
// resolved against it.
func (router *Router) GetAPIUser(res http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(chi.URLParam(req, "id"))
	if err != nil {
		http.Error(res, "the user id must be a UUID", http.StatusBadRequest)
		return
	}

	users := router.loader.State().Users
	user, found := view.FindUser(users, id)
	if !found {
		http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	writeJSON(res, http.StatusOK, view.NewUserDetail(user, users))
}

// PostAPIReload runs a load and returns the resulting snapshot: 200 when it
// succeeded, 500 for a misconfigured endpoint and 502 for upstream failures.
// The load is detached from the request so a client hanging up does not
// cancel it for other callers sharing it.
func (router *Router) PostAPIReload(res http.ResponseWriter, req *http.Request) {
	err := router.loader.Load(context.WithoutCancel(req.Context()))

	status := http.StatusOK
	switch {
	case errors.Is(err, loader.ErrInvalidURL):
		status = http.StatusInternalServerError
	case err != nil:
		status = http.StatusBadGateway
	}

	writeJSON(res, status, view.NewStateResponse(router.loader.State()))
}

func writeJSON(res http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorln("marshaling response", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if _, err := res.Write(response); err != nil {
		logger.Log.Debugln("writing response", "error", err)
	}
}
