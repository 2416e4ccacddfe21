// Package database provides MongoDB integration for the survey gateway.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ConnectionState reports the database client's readiness.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
)

func (s ConnectionState) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

const (
	defaultConnectTimeout = 10 * time.Second
	pingTimeout           = 2 * time.Second
)

// Config holds database configuration.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Client wraps the MongoDB client. It is safe for concurrent use.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewClient connects to MongoDB. Missing fields fall back to the
// MONGODB_URI / MONGODB_DATABASE environment variables.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	uri := cfg.URI
	if uri == "" {
		uri = strings.TrimSpace(os.Getenv("MONGODB_URI"))
	}
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}

	name := cfg.Database
	if name == "" {
		name = strings.TrimSpace(os.Getenv("MONGODB_DATABASE"))
	}
	if name == "" {
		name = "maternal_survey"
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	return &Client{client: client, db: client.Database(name)}, nil
}

// State probes the server and reports readiness. The probe is performed
// fresh on every call; nothing is cached.
func (c *Client) State() ConnectionState {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return StateDisconnected
	}
	return StateConnected
}

// Database exposes the underlying database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
