// Package sync keeps the local store and the remote store convergent: it
// pulls the server snapshot once on start, then pushes the full local
// snapshot on a debounce schedule after every burst of mutations.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"fieldpulse/internal/client/store"
	"fieldpulse/internal/models"
)

// Status is the per-operation sync state surfaced to the UI.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultDebounce is the delay between the last observed mutation and the
// push it triggers.
const DefaultDebounce = 3 * time.Second

// State is a point-in-time view of the engine for status displays.
type State struct {
	Status       Status
	LastSyncedAt time.Time
	Err          string
}

// Engine orchestrates pull-on-start and debounced pushes. At most one push
// is in flight at a time: a debounce that fires mid-push re-arms after the
// in-flight push completes instead of overlapping it.
type Engine struct {
	store    *store.Store
	client   *http.Client
	baseURL  string
	logger   *zap.Logger
	debounce time.Duration

	mu      gosync.Mutex
	timer   *time.Timer
	pushing bool
	dirty   bool
	ready   bool
	pulled  bool
	state   State

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine over the given store and server base URL. A zero
// debounce selects DefaultDebounce. The http.Client's timeout bounds each
// request.
func New(st *store.Store, client *http.Client, baseURL string, debounce time.Duration, logger *zap.Logger) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Engine{
		store:    st,
		client:   client,
		baseURL:  baseURL,
		logger:   logger,
		debounce: debounce,
		state:    State{Status: StatusIdle},
	}
}

// Start runs the mount sequence: best-effort migrations, a one-shot pull,
// then begins observing store mutations. Store changes before Start never
// trigger a push (the mount guard), so nothing is pushed before the pull
// has had a chance to hydrate. A failed pull is non-fatal; the client keeps
// working from local state.
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.migrate(e.ctx); err != nil {
		e.logger.Warn("migrate request failed", zap.Error(err))
	}
	if err := e.PullOnce(e.ctx); err != nil {
		e.logger.Warn("initial pull failed, continuing offline", zap.Error(err))
	}

	e.mu.Lock()
	e.ready = true
	e.mu.Unlock()
	e.store.Subscribe(e.onStoreChange)
}

// Stop cancels the pending debounce timer and any in-flight request context.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// State returns the current status snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// onStoreChange arms (or re-arms) the single-slot debounce timer. Bursts of
// mutations inside the window coalesce into one push reflecting the end
// state.
func (e *Engine) onStoreChange() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return
	}
	e.armLocked()
}

func (e *Engine) armLocked() {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.firePush)
}

// firePush runs when the debounce window elapses. If a push is already in
// flight it queues logically: the completion handler re-arms the timer.
func (e *Engine) firePush() {
	e.mu.Lock()
	if e.pushing {
		e.dirty = true
		e.mu.Unlock()
		return
	}
	e.pushing = true
	e.timer = nil
	e.mu.Unlock()

	if err := e.push(e.ctx); err != nil {
		e.logger.Warn("push failed", zap.Error(err))
	}
	e.finishPush()
}

func (e *Engine) finishPush() {
	e.mu.Lock()
	e.pushing = false
	if e.dirty {
		e.dirty = false
		e.armLocked()
	}
	e.mu.Unlock()
}

// SyncNow pushes immediately, for a manual sync trigger. Returns an error
// if a push is already in flight; the pending changes go out with it.
func (e *Engine) SyncNow(ctx context.Context) error {
	e.mu.Lock()
	if e.pushing {
		e.dirty = true
		e.mu.Unlock()
		return errors.New("sync already in progress")
	}
	e.pushing = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	err := e.push(ctx)
	e.finishPush()
	return err
}

// PullOnce pulls at most once per engine lifetime, no matter how often the
// caller re-invokes the mount path.
func (e *Engine) PullOnce(ctx context.Context) error {
	e.mu.Lock()
	if e.pulled {
		e.mu.Unlock()
		return nil
	}
	e.pulled = true
	e.mu.Unlock()
	return e.Pull(ctx)
}

// pullEnvelope is the GET /sync response shape.
type pullEnvelope struct {
	Success bool             `json:"success"`
	Data    *models.Snapshot `json:"data"`
	Message string           `json:"message"`
}

// pushEnvelope is the POST /sync and /migrate response shape.
type pushEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Pull fetches the remote snapshot and merges it into the store: profile
// and settings server-wins, collections union-by-id with local wins. The
// merged state is persisted before returning.
func (e *Engine) Pull(ctx context.Context) error {
	e.setStatus(StatusSyncing, "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/sync", nil)
	if err != nil {
		return e.fail(err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return e.fail(fmt.Errorf("pull: %w", err))
	}
	defer resp.Body.Close()

	var env pullEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return e.fail(fmt.Errorf("pull: invalid response: %w", err))
	}
	if resp.StatusCode != http.StatusOK || !env.Success || env.Data == nil {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return e.fail(fmt.Errorf("pull: %s", msg))
	}

	e.store.MergeRemote(env.Data)
	if err := e.store.Save(); err != nil {
		e.logger.Warn("persisting pulled state failed", zap.Error(err))
	}
	e.succeed()
	return nil
}

// push uploads the entire current snapshot. The server upserts every record
// by id; records deleted locally are simply absent from the payload and are
// not deleted server-side. Failure leaves local state untouched and is
// retried on the next natural trigger.
func (e *Engine) push(ctx context.Context) error {
	e.setStatus(StatusSyncing, "")

	snap := e.store.Snapshot()
	body, err := json.Marshal(snap)
	if err != nil {
		return e.fail(fmt.Errorf("push: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/sync", bytes.NewReader(body))
	if err != nil {
		return e.fail(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return e.fail(fmt.Errorf("push: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env pushEnvelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return e.fail(fmt.Errorf("push: %s", msg))
	}
	io.Copy(io.Discard, resp.Body)

	e.succeed()
	return nil
}

// migrate asks the server to ensure the schema exists. Best-effort: the
// caller logs and moves on, and a missing schema surfaces later as an
// ordinary pull/push error.
func (e *Engine) migrate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/migrate", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (e *Engine) setStatus(st Status, errMsg string) {
	e.mu.Lock()
	e.state.Status = st
	e.state.Err = errMsg
	e.mu.Unlock()
}

func (e *Engine) succeed() {
	e.mu.Lock()
	e.state.Status = StatusSuccess
	e.state.Err = ""
	e.state.LastSyncedAt = time.Now()
	e.mu.Unlock()
}

func (e *Engine) fail(err error) error {
	e.setStatus(StatusError, err.Error())
	return err
}
