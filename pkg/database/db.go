// Package database owns the single MongoDB client of the process.
//
// Connect is connect-or-reuse: the first call dials, every later call waits
// for that attempt and returns its outcome. The HTTP server never waits on it;
// handlers that need data call Database() and get ErrNotConnected until the
// attempt succeeds.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/shashiranjanraj/folio/pkg/metrics"
)

// DefaultSelectionTimeout bounds how long a connection attempt may wait for a
// usable server.
const DefaultSelectionTimeout = 5 * time.Second

// ErrNotConnected is returned by Database while no connection is available.
var ErrNotConnected = errors.New("database: not connected")

// ErrClosed is the connect outcome of a connector closed before it dialled.
var ErrClosed = errors.New("database: connector closed")

// State is the connector's coarse lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateDisconnected
)

var stateNames = []string{"idle", "connecting", "connected", "failed", "disconnected"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Hooks are the standing observers of the connection. Each defaults to a log
// line; none of them trigger a reconnect, the driver handles that itself.
type Hooks struct {
	OnError        func(err error)
	OnDisconnected func()
	OnReconnected  func()
}

// Options configures a Mongo connector.
type Options struct {
	URI              string
	Database         string // empty: taken from the URI path, then Fallback
	Fallback         string
	SelectionTimeout time.Duration
	Hooks            Hooks
}

// Mongo is a lazily connected MongoDB handle.
type Mongo struct {
	opts Options
	log  *slog.Logger

	once  sync.Once
	ready chan struct{}
	state atomic.Int32

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
	err    error
}

// New builds a connector. Nothing is dialled until Connect.
func New(opts Options, log *slog.Logger) *Mongo {
	if opts.SelectionTimeout <= 0 {
		opts.SelectionTimeout = DefaultSelectionTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	m := &Mongo{
		opts:  opts,
		log:   log.With("component", "database"),
		ready: make(chan struct{}),
	}
	m.setState(StateIdle)

	if m.opts.Hooks.OnError == nil {
		m.opts.Hooks.OnError = func(err error) {
			m.log.Error("MongoDB connection error", "error", err)
		}
	}
	if m.opts.Hooks.OnDisconnected == nil {
		m.opts.Hooks.OnDisconnected = func() {
			m.log.Warn("MongoDB disconnected, driver will attempt to reconnect")
		}
	}
	if m.opts.Hooks.OnReconnected == nil {
		m.opts.Hooks.OnReconnected = func() {
			m.log.Info("MongoDB reconnected successfully")
		}
	}
	return m
}

// Connect dials and pings the server once per connector. Concurrent and
// later callers block until that attempt resolves (or their ctx ends) and
// receive the same result.
func (m *Mongo) Connect(ctx context.Context) error {
	m.once.Do(func() {
		go m.dial(context.WithoutCancel(ctx))
	})

	select {
	case <-m.ready:
		return m.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mongo) dial(ctx context.Context) {
	defer close(m.ready)
	m.setState(StateConnecting)

	client, db, err := m.open(ctx)

	m.mu.Lock()
	m.client, m.db, m.err = client, db, err
	m.mu.Unlock()

	if err != nil {
		m.setState(StateFailed)
		m.log.Error("MongoDB connection failed, continuing without database", "error", err)
		return
	}
	m.setState(StateConnected)
	m.log.Info("MongoDB connected", "database", db.Name())
}

func (m *Mongo) open(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	name, err := m.databaseName()
	if err != nil {
		return nil, nil, err
	}

	clientOpts := options.Client().ApplyURI(m.opts.URI).
		SetServerSelectionTimeout(m.opts.SelectionTimeout).
		SetConnectTimeout(m.opts.SelectionTimeout).
		SetServerMonitor(m.monitor())

	ctx, cancel := context.WithTimeout(ctx, 2*m.opts.SelectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("database: ping: %w", err)
	}

	return client, client.Database(name), nil
}

func (m *Mongo) databaseName() (string, error) {
	if m.opts.Database != "" {
		return m.opts.Database, nil
	}
	cs, err := connstring.ParseAndValidate(m.opts.URI)
	if err != nil {
		return "", fmt.Errorf("database: parse uri: %w", err)
	}
	if cs.Database != "" {
		return cs.Database, nil
	}
	if m.opts.Fallback != "" {
		return m.opts.Fallback, nil
	}
	return "", errors.New("database: no database name in uri or options")
}

// monitor turns heartbeat outcomes into the error/disconnected/reconnected
// observers. Transitions only count once the initial connect succeeded.
func (m *Mongo) monitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			metrics.DBEvents.WithLabelValues("error").Inc()
			m.opts.Hooks.OnError(e.Failure)
			if m.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected)) {
				m.publishState(StateDisconnected)
				metrics.DBEvents.WithLabelValues("disconnected").Inc()
				m.opts.Hooks.OnDisconnected()
			}
		},
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			if m.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnected)) {
				m.publishState(StateConnected)
				metrics.DBEvents.WithLabelValues("reconnected").Inc()
				m.opts.Hooks.OnReconnected()
			}
		},
	}
}

// Ready is closed once the connection attempt has resolved either way.
func (m *Mongo) Ready() <-chan struct{} { return m.ready }

// State reports the current lifecycle state.
func (m *Mongo) State() State { return State(m.state.Load()) }

// Err is the outcome of the connection attempt; nil before it resolves.
func (m *Mongo) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Database returns the connected database or ErrNotConnected. A database
// whose heartbeats are failing is still returned; the driver retries.
func (m *Mongo) Database() (*mongo.Database, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrNotConnected
	}
	return m.db, nil
}

// Ping checks the live connection.
func (m *Mongo) Ping(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close waits, bounded by ctx, for an in-flight connection attempt to
// resolve and then disconnects the client if one was opened. A connector
// closed before Connect never dials.
func (m *Mongo) Close(ctx context.Context) error {
	m.once.Do(func() {
		m.mu.Lock()
		m.err = ErrClosed
		m.mu.Unlock()
		close(m.ready)
	})

	select {
	case <-m.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	client := m.client
	m.client, m.db = nil, nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	m.setState(StateIdle)
	return client.Disconnect(ctx)
}

func (m *Mongo) setState(s State) {
	m.state.Store(int32(s))
	m.publishState(s)
}

func (m *Mongo) publishState(s State) {
	metrics.SetDBState(s.String(), stateNames)
}
