// Package graph is the Dgraph transport: it runs parameterized queries,
// applies mutation sets as single atomic batches and exposes the typed read
// surface the sanitizer and routes consume.
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/dgraph-io/dgo/v230"
	"github.com/dgraph-io/dgo/v230/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Client wraps the Dgraph grpc client
type Client struct {
	dgraph *dgo.Dgraph
	conn   *grpc.ClientConn
	logger ectologger.Logger
}

// Config holds graph database configuration
type Config struct {
	Host string
	Port int
}

// NewClient dials the Dgraph alpha and builds a client
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	target := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial dgraph at %s: %w", target, err)
	}
	return &Client{
		dgraph: dgo.NewDgraphClient(api.NewDgraphClient(conn)),
		conn:   conn,
		logger: logger,
	}, nil
}

// Close releases the underlying grpc connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Query runs a read-only query with its variable bindings and returns the
// raw JSON response body.
func (c *Client) Query(ctx context.Context, query string, vars map[string]string) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.Query")
	defer span.End()

	txn := c.dgraph.NewReadOnlyTxn().BestEffort()
	defer txn.Discard(ctx)

	var resp *api.Response
	var err error
	if len(vars) > 0 {
		resp, err = txn.QueryWithVars(ctx, query, vars)
	} else {
		resp, err = txn.Query(ctx, query)
	}
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to execute graph query")
		return nil, fmt.Errorf("failed to execute graph query: %w", err)
	}
	return resp.Json, nil
}

// Mutate applies a mutation set as one committed transaction and returns
// the blank-node label to allocated uid mapping.
func (c *Client) Mutate(ctx context.Context, m models.MutationSet) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.Mutate")
	defer span.End()

	if m.Empty() {
		return nil, nil
	}

	txn := c.dgraph.NewTxn()
	defer txn.Discard(ctx)

	resp, err := txn.Mutate(ctx, &api.Mutation{
		SetNquads: m.SetNquads,
		DelNquads: m.DelNquads,
		CommitNow: true,
	})
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to apply mutation")
		return nil, fmt.Errorf("failed to apply mutation: %w", err)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"set_bytes": len(m.SetNquads),
		"del_bytes": len(m.DelNquads),
		"uids":      len(resp.Uids),
	}).Info("Applied mutation")
	return resp.Uids, nil
}

// Ping verifies the graph backend answers a trivial query
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "{ ping(func: uid(0x1)) { uid } }", nil)
	return err
}

// ApplySchema alters the Dgraph schema to the rendered DDL
func (c *Client) ApplySchema(ctx context.Context, ddl string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ApplySchema")
	defer span.End()

	if err := c.dgraph.Alter(ctx, &api.Operation{Schema: ddl}); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	c.logger.WithContext(ctx).Info("Applied graph schema")
	return nil
}
