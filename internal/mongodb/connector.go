package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/paypass/paypass-backend/internal/config"
)

// ErrRetriesExhausted indicates the connection attempt ceiling was reached.
// Terminal until the process restarts or Connect is invoked externally.
var ErrRetriesExhausted = errors.New("mongodb: connection retries exhausted")

// Status is a read-only snapshot of the connection state.
type Status struct {
	Connected   bool `json:"connected"`
	Attempts    int  `json:"attempts"`
	MaxAttempts int  `json:"max_attempts"`
}

// mongoClient is the subset of *mongo.Client the connector needs. Tests
// substitute a fake.
type mongoClient interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

type dialFunc func(ctx context.Context) (mongoClient, error)

// Connector owns the lifecycle of the single database connection. The retry
// policy is a fixed 3-second delay with an attempt ceiling. No jitter and no
// backoff growth; the observable timing is part of the contract.
type Connector struct {
	mu          sync.Mutex
	connected   bool
	attempts    int
	maxAttempts int
	retryDelay  time.Duration
	dial        dialFunc
	client      mongoClient
	database    string
	retryTimer  *time.Timer
}

// NewConnector creates a connector for the configured MongoDB deployment.
func NewConnector(cfg config.Config) *Connector {
	c := newConnectorWithConfig(nil, config.MaxConnectAttempts, config.ConnectRetryDelaySeconds*time.Second)
	c.database = cfg.MongoDatabase
	c.dial = func(ctx context.Context) (mongoClient, error) {
		return dialMongo(ctx, cfg, c)
	}
	return c
}

// newConnectorWithConfig creates a connector with custom dial and retry
// settings for testing.
func newConnectorWithConfig(dial dialFunc, maxAttempts int, retryDelay time.Duration) *Connector {
	return &Connector{
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		dial:        dial,
	}
}

func dialMongo(ctx context.Context, cfg config.Config, c *Connector) (mongoClient, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(config.MongoPoolSize).
		SetConnectTimeout(config.MongoConnectTimeoutSeconds * time.Second).
		SetSocketTimeout(config.MongoSocketTimeoutSeconds * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true).
		SetServerMonitor(c.serverMonitor()).
		SetPoolMonitor(c.poolMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.MongoConnectTimeoutSeconds*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Connect makes a single connection attempt. On failure it schedules one
// retry after the fixed delay while attempts remain, returning immediately;
// once the ceiling is reached no further automatic attempts occur.
func (c *Connector) Connect(ctx context.Context) bool {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return true
	}
	c.cancelRetryLocked()
	c.mu.Unlock()

	client, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.attempts++
		attempts := c.attempts
		max := c.maxAttempts
		c.mu.Unlock()

		if attempts < max {
			slog.Warn("mongo_connect_failed",
				"attempt", attempts,
				"max_attempts", max,
				"retry_in", c.retryDelay,
				"error", err,
			)
			c.scheduleRetry()
		} else {
			slog.Error("mongo_connect_exhausted",
				"attempts", attempts,
				"error", err,
			)
		}
		return false
	}

	c.mu.Lock()
	old := c.client
	c.client = client
	c.connected = true
	c.attempts = 0
	c.mu.Unlock()

	if old != nil {
		_ = old.Disconnect(context.Background())
	}

	slog.Info("mongo_connected", "database", c.database)
	c.runDiagnostics(ctx)
	return true
}

// Status returns a read-only snapshot with no side effects.
func (c *Connector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Connected:   c.connected,
		Attempts:    c.attempts,
		MaxAttempts: c.maxAttempts,
	}
}

// Err reports ErrRetriesExhausted once the attempt ceiling is reached
// without a live connection, nil otherwise.
func (c *Connector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected && c.attempts >= c.maxAttempts {
		return ErrRetriesExhausted
	}
	return nil
}

// Database returns a handle on the configured database, or nil when no
// client has been established.
func (c *Connector) Database() *mongo.Database {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	return c.client.Database(c.database)
}

// Disconnect closes the connection if one is open. Idempotent.
func (c *Connector) Disconnect(ctx context.Context) {
	c.mu.Lock()
	c.cancelRetryLocked()
	client := c.client
	wasConnected := c.connected
	c.client = nil
	c.connected = false
	c.mu.Unlock()

	if client != nil && wasConnected {
		if err := client.Disconnect(ctx); err != nil {
			slog.Warn("mongo_disconnect_failed", "error", err)
		}
	}
}

// serverMonitor maps driver heartbeat events onto connection state.
func (c *Connector) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			c.markConnected()
		},
		ServerHeartbeatFailed: func(*event.ServerHeartbeatFailedEvent) {
			c.markError()
		},
	}
}

// poolMonitor maps pool-cleared events onto the disconnected reaction, the
// sole path for unprompted reconnection after an established drop.
func (c *Connector) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			if e.Type == event.PoolCleared {
				c.handleDisconnected()
			}
		},
	}
}

func (c *Connector) markConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
}

// markError flags the connection down without scheduling a retry; retries
// are driven only by the disconnected reaction.
func (c *Connector) markError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *Connector) handleDisconnected() {
	c.mu.Lock()
	c.connected = false
	attempts := c.attempts
	max := c.maxAttempts
	c.mu.Unlock()

	slog.Warn("mongo_disconnected", "attempts", attempts)
	if attempts < max {
		c.scheduleRetry()
	}
}

// scheduleRetry arms a single retry timer. At most one is in flight, and
// never while connected.
func (c *Connector) scheduleRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retryTimer != nil || c.connected {
		return
	}
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		c.mu.Unlock()
		c.Connect(context.Background())
	})
}

func (c *Connector) cancelRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// runDiagnostics makes a best-effort pass over the database after a
// successful connect. Failures are logged and never fail the connect.
func (c *Connector) runDiagnostics(ctx context.Context) {
	db := c.Database()
	if db == nil {
		return
	}

	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		slog.Warn("mongo_diagnostics_failed", "error", err)
		return
	}
	slog.Info("mongo_collections_listed", "count", len(names))

	for _, coll := range []string{"checkouts", "transactions"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.D{})
		if err != nil {
			slog.Warn("mongo_diagnostics_failed", "collection", coll, "error", err)
			continue
		}
		slog.Info("mongo_collection_count", "collection", coll, "documents", n)
	}
}
