package bulk

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/syssam/bulkwrite/columns"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/schema"
)

// Client runs bulk operations against one database. It is safe for
// concurrent use; every operation resolves its own copy of the entity
// metadata.
type Client struct {
	driver   dialect.Driver
	policy   dialect.Policy
	resolver *columns.Resolver
	logger   *slog.Logger
	config   Config
}

// Option configures a Client.
type Option func(*Client)

// WithResolver sets the column resolver. Clients sharing a resolver share
// its metadata cache.
func WithResolver(r *columns.Resolver) Option {
	return func(c *Client) {
		c.resolver = r
	}
}

// WithProvider resolves entities with a private resolver over p.
func WithProvider(p schema.Provider) Option {
	return func(c *Client) {
		c.resolver = columns.NewResolver(p)
	}
}

// WithLogger sets the logger for batch progress and rollbacks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithConfig replaces the engine configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithBatchSize caps the number of objects per statement.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		c.config.BatchSize = n
	}
}

// WithPolicy overrides the dialect policy derived from the driver.
func WithPolicy(p dialect.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// NewClient returns a client for drv. The dialect policy is looked up from
// drv.Dialect() unless WithPolicy is given.
func NewClient(drv dialect.Driver, opts ...Option) (*Client, error) {
	c := &Client{
		driver:   drv,
		resolver: columns.DefaultResolver,
		logger:   slog.Default(),
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy == nil {
		p, ok := dialect.Lookup(drv.Dialect())
		if !ok {
			return nil, fmt.Errorf("bulk: unsupported dialect %q", drv.Dialect())
		}
		c.policy = p
	}
	if err := c.config.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Driver returns the underlying driver.
func (c *Client) Driver() dialect.Driver { return c.driver }

// Policy returns the dialect policy in use.
func (c *Client) Policy() dialect.Policy { return c.policy }

// Config returns the engine configuration.
func (c *Client) Config() Config { return c.config }

func (c *Client) maxParameters() int {
	if c.config.MaxParameters > 0 {
		return c.config.MaxParameters
	}
	return c.policy.MaxParameters()
}

func (c *Client) arrays() bool {
	return c.config.ValuesMode == ValuesArrays
}

// target is the resolved metadata of one operation.
type target struct {
	tree  *columns.Tree
	name  string
	table string
}

func (c *Client) target(t reflect.Type) (*target, error) {
	tree, err := c.resolver.Properties(t)
	if err != nil {
		return nil, err
	}
	return &target{
		tree:  tree,
		name:  tree.Entity.Name(),
		table: c.policy.QuoteTable(tree.Entity.Schema, tree.Entity.Table),
	}, nil
}

// ExecOption configures a single operation.
type ExecOption func(*execOptions)

type execOptions struct {
	tx        dialect.Tx
	noInnerTx bool
	batchSize int
}

// WithTx runs the operation on the caller's transaction. The engine never
// commits or rolls back a transaction it did not open.
func WithTx(tx dialect.Tx) ExecOption {
	return func(o *execOptions) {
		o.tx = tx
	}
}

// WithoutInnerTx runs a multi-batch operation without a transaction of the
// engine's own.
func WithoutInnerTx() ExecOption {
	return func(o *execOptions) {
		o.noInnerTx = true
	}
}

// WithBatchLimit caps the number of objects per statement for one operation.
func WithBatchLimit(n int) ExecOption {
	return func(o *execOptions) {
		o.batchSize = n
	}
}

func (c *Client) execOptions(opts []ExecOption) execOptions {
	o := execOptions{
		noInnerTx: c.config.DisableInnerTx,
		batchSize: c.config.BatchSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
