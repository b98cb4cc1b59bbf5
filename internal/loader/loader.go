// Package loader owns the FriendBook user list state: it fetches the
// configured endpoint, decodes the payload and publishes the outcome as an
// immutable Snapshot that observers can poll or subscribe to.
//
// A failed load keeps the users of the last successful one (marked stale),
// and overlapping Load calls share a single in-flight request.
package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/junkliveoz/FriendBook/internal/logger"
	"github.com/junkliveoz/FriendBook/internal/metrics"
	"github.com/junkliveoz/FriendBook/internal/models"
)

// InvalidURLMessage is the Failed message published for a malformed endpoint.
const InvalidURLMessage = "Invalid URL"

// ErrInvalidURL is returned by Load when the configured endpoint is not an
// http(s) URL. No request is made in that case.
var ErrInvalidURL = errors.New("invalid URL")

const loadKey = "load"

type usersFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type loadRecorder interface {
	ObserveLoad(outcome string, duration time.Duration, users int)
}

// Loader is the UserListLoader. It is safe for concurrent use.
type Loader struct {
	endpoint string
	fetcher  usersFetcher
	recorder loadRecorder
	now      func() time.Time
	validate *validator.Validate

	state    atomic.Pointer[Snapshot]
	attempts atomic.Uint64
	group    singleflight.Group

	subscribersMu sync.Mutex
	subscribers   map[chan Snapshot]struct{}
}

// Option configures a Loader.
type Option func(*Loader)

// WithRecorder reports every finished attempt to recorder.
func WithRecorder(recorder loadRecorder) Option {
	return func(l *Loader) {
		l.recorder = recorder
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// New creates a Loader in the Idle state. The endpoint is not checked here:
// a malformed one surfaces as Failed on the first Load.
func New(endpoint string, f usersFetcher, optionsProto ...Option) *Loader {
	l := &Loader{
		endpoint:    endpoint,
		fetcher:     f,
		now:         time.Now,
		validate:    validator.New(),
		subscribers: map[chan Snapshot]struct{}{},
	}
	for _, protoOption := range optionsProto {
		protoOption(l)
	}

	l.state.Store(&Snapshot{
		Status:    StatusIdle,
		UpdatedAt: l.now(),
	})

	return l
}

// State returns the current snapshot.
func (l *Loader) State() Snapshot {
	return l.state.Load().clone()
}

// Load performs one fetch-and-decode attempt and publishes its outcome. If
// another Load is already in flight the call joins it instead of issuing a
// second request, and returns the shared outcome. The request runs under the
// context of the call that started it; a joining caller whose ctx ends early
// just stops waiting.
func (l *Loader) Load(ctx context.Context) error {
	resultCh := l.group.DoChan(loadKey, func() (interface{}, error) {
		return nil, l.load(ctx)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultCh:
		return res.Err
	}
}

func (l *Loader) load(ctx context.Context) error {
	start := time.Now()
	attempt := l.attempts.Add(1)
	previous := l.state.Load()

	l.publish(&Snapshot{
		Status:    StatusLoading,
		Users:     previous.Users,
		Stale:     previous.Users != nil,
		Attempt:   attempt,
		UpdatedAt: l.now(),
	})

	if err := l.validate.Var(l.endpoint, "required,http_url"); err != nil {
		logger.Log.Warnln("load rejected", "endpoint", l.endpoint, "error", err)
		l.fail(previous, attempt, start, metrics.OutcomeInvalidURL, InvalidURLMessage)
		return ErrInvalidURL
	}

	body, err := l.fetcher.Fetch(ctx, l.endpoint)
	if err != nil {
		outcome := metrics.OutcomeTransport
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCanceled
		}
		logger.Log.Warnln("load failed", "endpoint", l.endpoint, "attempt", attempt, "error", err)
		l.fail(previous, attempt, start, outcome, fmt.Sprintf("Request failed: %v", err))
		return fmt.Errorf("fetching %s: %w", l.endpoint, err)
	}

	envelope, err := models.DecodeEnvelope(body)
	if err != nil {
		logger.Log.Warnln("load failed", "endpoint", l.endpoint, "attempt", attempt, "error", err)
		l.fail(previous, attempt, start, metrics.OutcomeDecode, fmt.Sprintf("Invalid data: %v", err))
		return fmt.Errorf("decoding response from %s: %w", l.endpoint, err)
	}

	l.publish(&Snapshot{
		Status:    StatusLoaded,
		Users:     envelope.Users,
		Attempt:   attempt,
		UpdatedAt: l.now(),
	})
	l.observe(metrics.OutcomeLoaded, start, len(envelope.Users))
	logger.Log.Debugln("load finished", "attempt", attempt, "users", len(envelope.Users))

	return nil
}

// fail publishes Failed, carrying over the users of the last success.
func (l *Loader) fail(previous *Snapshot, attempt uint64, start time.Time, outcome, message string) {
	l.publish(&Snapshot{
		Status:    StatusFailed,
		Users:     previous.Users,
		Message:   message,
		Stale:     previous.Users != nil,
		Attempt:   attempt,
		UpdatedAt: l.now(),
	})
	l.observe(outcome, start, 0)
}

func (l *Loader) observe(outcome string, start time.Time, users int) {
	if l.recorder != nil {
		l.recorder.ObserveLoad(outcome, time.Since(start), users)
	}
}

func (l *Loader) publish(snapshot *Snapshot) {
	l.subscribersMu.Lock()
	defer l.subscribersMu.Unlock()

	l.state.Store(snapshot)
	logger.Log.Debugln("state changed", "status", snapshot.Status, "attempt", snapshot.Attempt)

	for ch := range l.subscribers {
		offerLatest(ch, snapshot.clone())
	}
}

// Subscribe returns a channel delivering the current snapshot and then every
// later one. Delivery is latest-value: a slow reader skips intermediate
// states but always sees the most recent. The channel is closed once ctx is
// done.
func (l *Loader) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	l.subscribersMu.Lock()
	l.subscribers[ch] = struct{}{}
	ch <- l.state.Load().clone()
	l.subscribersMu.Unlock()

	go func() {
		<-ctx.Done()
		l.subscribersMu.Lock()
		delete(l.subscribers, ch)
		close(ch)
		l.subscribersMu.Unlock()
	}()

	return ch
}

// offerLatest replaces a pending value, if any. Only publish writes to ch and
// it holds subscribersMu, so the send never blocks.
func offerLatest(ch chan Snapshot, snapshot Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snapshot
}

func (s *Snapshot) clone() Snapshot {
	c := *s
	c.Users = slices.Clone(s.Users)
	return c
}
