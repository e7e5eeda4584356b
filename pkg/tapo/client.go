package tapo

import (
	"context"
	"log/slog"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/connection"
	"github.com/tapo-protocol/tapo-go/pkg/device"
	"github.com/tapo-protocol/tapo-go/pkg/discovery"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/interaction"
	"github.com/tapo-protocol/tapo-go/pkg/log"
	"github.com/tapo-protocol/tapo-go/pkg/session"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Config configures a Client.
type Config struct {
	// Username and Password are the account credentials. Required.
	Username string
	Password string

	// Timeout bounds each request (default: 30s). Ignored when Poster is set.
	Timeout time.Duration

	// ConnectAttempts bounds handshake attempts on network errors
	// (default: 1, no retry). Other failures are never retried.
	ConnectAttempts int

	// Backoff spaces the connect attempts when ConnectAttempts > 1.
	Backoff connection.BackoffConfig

	// SessionLifetime bounds a session when the device sends no expiry
	// (default: 24h).
	SessionLifetime time.Duration

	// Poster overrides the HTTP transport.
	Poster transport.Poster

	// Scanner configures Discover. Its Connector and Timeout are set per
	// scan.
	Scanner discovery.ScannerConfig

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger captures protocol events of every handle. Nil disables
	// capture.
	ProtocolLogger log.Logger

	// FrameCapture limits captured body bytes (default: 256).
	FrameCapture int
}

var _ discovery.Connector = (*Client)(nil)

// Client connects to devices with one set of credentials.
type Client struct {
	config Config
	poster transport.Poster
	logger *slog.Logger
}

// NewClient creates a Client. No network traffic happens until a device is
// connected.
func NewClient(config Config) (*Client, error) {
	if config.Username == "" || config.Password == "" {
		return nil, errs.Newf(errs.KindInvalidParameters, "new client", "username and password are required")
	}
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poster := config.Poster
	if poster == nil {
		poster = transport.NewClient(transport.ClientConfig{
			Timeout: config.Timeout,
			Logger:  logger,
		})
	}
	return &Client{config: config, poster: poster, logger: logger}, nil
}

// connect performs the handshake for address and returns the command client
// owning the session. Unreachable devices are retried with backoff only when
// the caller asked for more than one attempt.
func (c *Client) connect(ctx context.Context, address string, variant wire.Variant) (*interaction.Client, error) {
	sessions := session.NewManager(session.ManagerConfig{
		Address:         address,
		Credentials:     session.Credentials{Username: c.config.Username, Password: c.config.Password},
		Poster:          c.poster,
		Variant:         variant,
		SessionLifetime: c.config.SessionLifetime,
		Logger:          c.logger,
		ProtocolLogger:  c.config.ProtocolLogger,
	})

	backoff := connection.NewBackoffWithConfig(c.config.Backoff)
	err := connection.Retry(ctx, backoff, c.config.ConnectAttempts, func(ctx context.Context) error {
		_, err := sessions.Establish(ctx)
		if errs.KindOf(err) == errs.KindNetwork {
			c.logger.Debug("device unreachable", "address", address, "attempt", backoff.Attempts()+1, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("connected", "address", address, "variant", sessions.Variant())
	return interaction.NewClient(interaction.ClientConfig{
		Sessions:       sessions,
		Logger:         c.logger,
		ProtocolLogger: c.config.ProtocolLogger,
		FrameCapture:   c.config.FrameCapture,
	}), nil
}

func open[T any](ctx context.Context, c *Client, address string, build func(device.Conn) T) (T, error) {
	conn, err := c.connect(ctx, address, wire.VariantUnknown)
	if err != nil {
		var zero T
		return zero, err
	}
	return build(conn), nil
}

// Connect opens a handle of the given category. A known variant skips
// scheme detection. It lets discovery results connect through c.
func (c *Client) Connect(ctx context.Context, address string, category device.Category, variant wire.Variant) (device.Device, error) {
	conn, err := c.connect(ctx, address, variant)
	if err != nil {
		return nil, err
	}
	return device.New(conn, category), nil
}

// Generic connects to any device with the common commands only.
func (c *Client) Generic(ctx context.Context, address string) (*device.Generic, error) {
	return open(ctx, c, address, device.NewGeneric)
}

// Light connects to a dimmable white bulb.
func (c *Client) Light(ctx context.Context, address string) (*device.Light, error) {
	return open(ctx, c, address, device.NewLight)
}

// ColorLight connects to a colour bulb.
func (c *Client) ColorLight(ctx context.Context, address string) (*device.ColorLight, error) {
	return open(ctx, c, address, device.NewColorLight)
}

// RgbLightStrip connects to a single-zone light strip.
func (c *Client) RgbLightStrip(ctx context.Context, address string) (*device.RgbLightStrip, error) {
	return open(ctx, c, address, device.NewRgbLightStrip)
}

// RgbicLightStrip connects to a multi-zone light strip.
func (c *Client) RgbicLightStrip(ctx context.Context, address string) (*device.RgbicLightStrip, error) {
	return open(ctx, c, address, device.NewRgbicLightStrip)
}

// Plug connects to a plug without metering.
func (c *Client) Plug(ctx context.Context, address string) (*device.Plug, error) {
	return open(ctx, c, address, device.NewPlug)
}

// PlugEnergyMonitoring connects to a metering plug.
func (c *Client) PlugEnergyMonitoring(ctx context.Context, address string) (*device.PlugEnergyMonitoring, error) {
	return open(ctx, c, address, device.NewPlugEnergyMonitoring)
}

// PowerStrip connects to a power strip.
func (c *Client) PowerStrip(ctx context.Context, address string) (*device.PowerStrip, error) {
	return open(ctx, c, address, device.NewPowerStrip)
}

// PowerStripEnergyMonitoring connects to a power strip with metered sockets.
func (c *Client) PowerStripEnergyMonitoring(ctx context.Context, address string) (*device.PowerStripEnergyMonitoring, error) {
	return open(ctx, c, address, device.NewPowerStripEnergyMonitoring)
}

// Hub connects to a hub.
func (c *Client) Hub(ctx context.Context, address string) (*device.Hub, error) {
	return open(ctx, c, address, device.NewHub)
}

// Discover probes target, a broadcast or unicast address, for at most
// timeout. A zero timeout uses the scanner default.
func (c *Client) Discover(ctx context.Context, target string, timeout time.Duration) (*discovery.Stream, error) {
	cfg := c.config.Scanner
	cfg.Connector = c
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = c.logger
	}
	return discovery.NewScanner(cfg).Scan(ctx, target)
}
