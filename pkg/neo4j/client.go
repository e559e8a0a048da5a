package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const defaultVerifyTimeout = 5 * time.Second

// Client wraps the Neo4j driver for reuse across repositories
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// Config holds Neo4j connection configuration
type Config struct {
	URI      string
	Username string
	Password string
	// Database is optional; empty selects the server default
	Database string
}

// NewClient creates and verifies a Neo4j client connection
func NewClient(cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j: URI is required")
	}
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultVerifyTimeout)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: cfg.Database}, nil
}

// Close closes the Neo4j driver connection
func (c *Client) Close(ctx context.Context) error {
	if c.driver != nil {
		return c.driver.Close(ctx)
	}
	return nil
}

// Shutdown satisfies shutdown.Stoppable
func (c *Client) Shutdown(ctx context.Context) error {
	return c.Close(ctx)
}

// NewSession opens a session on the configured database
func (c *Client) NewSession(ctx context.Context, config neo4j.SessionConfig) neo4j.SessionWithContext {
	if config.DatabaseName == "" {
		config.DatabaseName = c.database
	}
	return c.driver.NewSession(ctx, config)
}

// QueryRead runs query in a read transaction and returns the result keys and
// every record. Records are collected inside the transaction so retries start clean.
func (c *Client) QueryRead(ctx context.Context, query string, params map[string]any) ([]string, []*neo4j.Record, error) {
	session := c.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	var (
		keys    []string
		records []*neo4j.Record
	)
	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		keys, records = nil, nil
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		keys, err = result.Keys()
		if err != nil {
			return nil, err
		}
		for result.Next(ctx) {
			records = append(records, result.Record())
		}
		return nil, result.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return keys, records, nil
}
