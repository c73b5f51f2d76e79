//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/wherering/internal/api/grpc/wherering"
	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

// Client wraps a gRPC connection to the engine server.
type Client struct {
	// conn is the underlying gRPC connection to the engine server.
	conn grpc.ClientConnInterface
	// closer releases conn; nil when the connection is owned elsewhere.
	closer func() error

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the engine server.
// Note: this uses insecure transport credentials; run the server on a trusted
// network or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial wherering server: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection. Close does not close conn.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// ReportFix sends a fix to the engine and returns the feed backlog.
func (c *Client) ReportFix(ctx context.Context, fix place.Fix) (int, error) {
	request, err := api.FixToStruct(fix)
	if err != nil {
		return 0, fmt.Errorf("encode fix: %w", err)
	}

	response, err := c.invoke(ctx, api.ReportFixMethod, request)
	if err != nil {
		return 0, fmt.Errorf("report fix: %w", err)
	}

	return int(response.GetFields()["pending"].GetNumberValue()), nil
}

// GetRinger retrieves the ringer state.
func (c *Client) GetRinger(ctx context.Context) (*ringer.State, error) {
	response, err := c.invoke(ctx, api.GetRingerMethod, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get ringer: %w", err)
	}

	return api.StateFromStruct(response)
}

// SetRinger changes the ringer mode as actor.
func (c *Client) SetRinger(ctx context.Context, actor *ringer.Actor, mode ringer.Mode) (*ringer.State, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	request, err := api.SetRingerRequest(actor, mode)
	if err != nil {
		return nil, fmt.Errorf("encode ringer request: %w", err)
	}

	response, err := c.invoke(ctx, api.SetRingerMethod, request)
	if err != nil {
		return nil, fmt.Errorf("set ringer: %w", err)
	}

	return api.StateFromStruct(response)
}

// GetStatus retrieves the engine status.
func (c *Client) GetStatus(ctx context.Context) (api.Status, error) {
	response, err := c.invoke(ctx, api.GetStatusMethod, new(emptypb.Empty))
	if err != nil {
		return api.Status{}, fmt.Errorf("get status: %w", err)
	}

	return api.StatusFromStruct(response)
}

// RefreshCatalog asks the engine to reload places and returns how many it uses.
func (c *Client) RefreshCatalog(ctx context.Context) (int, error) {
	response, err := c.invoke(ctx, api.RefreshCatalogMethod, new(emptypb.Empty))
	if err != nil {
		return 0, fmt.Errorf("refresh catalog: %w", err)
	}

	return int(response.GetFields()["places"].GetNumberValue()), nil
}

func (c *Client) invoke(ctx context.Context, method string, request any) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, method, request, response); err != nil {
		return nil, err
	}

	return response, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
