package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tapo-protocol/tapo-go/internal/config"
	"github.com/tapo-protocol/tapo-go/internal/logging"
	"github.com/tapo-protocol/tapo-go/pkg/export"
	"github.com/tapo-protocol/tapo-go/pkg/tapo"
)

// app holds what every command shares.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	// client is nil when no credentials are configured.
	client *tapo.Client

	// exporter is nil unless influxdb.enabled is set.
	exporter *export.Writer

	closeProtocolLog func() error
}

// newApp builds the loggers, the device client and the exporter from cfg.
// A nil logOut selects the configured log output.
func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := logging.New(cfg.Logging, logOut)

	plog, closeLog, err := logging.ProtocolLogger(cfg.Logging, logger)
	if err != nil {
		return nil, fmt.Errorf("opening protocol log: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, closeProtocolLog: closeLog}

	if cfg.RequireCredentials() == nil {
		a.client, err = tapo.NewClient(tapo.Config{
			Username:        cfg.Credentials.Username,
			Password:        cfg.Credentials.Password,
			Timeout:         cfg.Client.Timeout,
			ConnectAttempts: cfg.Client.ConnectAttempts,
			SessionLifetime: cfg.Client.SessionLifetime,
			Logger:          logger,
			ProtocolLogger:  plog,
		})
		if err != nil {
			_ = closeLog()
			return nil, err
		}
	}

	if cfg.InfluxDB.Enabled {
		a.exporter, err = export.NewWriter(export.Config{
			URL:           cfg.InfluxDB.URL,
			Token:         cfg.InfluxDB.Token,
			Org:           cfg.InfluxDB.Org,
			Bucket:        cfg.InfluxDB.Bucket,
			BatchSize:     uint(cfg.InfluxDB.BatchSize),
			FlushInterval: cfg.InfluxDB.FlushInterval,
			Logger:        logger,
		})
		if err != nil {
			_ = closeLog()
			return nil, fmt.Errorf("creating influxdb writer: %w", err)
		}
	}
	return a, nil
}

// devices returns the client or config.ErrNoCredentials.
func (a *app) devices() (*tapo.Client, error) {
	if a.client == nil {
		return nil, config.ErrNoCredentials
	}
	return a.client, nil
}

// Close flushes the exporter and closes the protocol capture.
func (a *app) Close() error {
	var errs []error
	if a.exporter != nil {
		errs = append(errs, a.exporter.Close())
	}
	errs = append(errs, a.closeProtocolLog())
	return errors.Join(errs...)
}
