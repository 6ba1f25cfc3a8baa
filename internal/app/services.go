package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrToast99/neobridge/internal/bridge"
	"github.com/MrToast99/neobridge/internal/config"
	"github.com/MrToast99/neobridge/internal/metrics"
	"github.com/MrToast99/neobridge/internal/mqtt"
	"github.com/MrToast99/neobridge/internal/neo"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder

	// Cloud session and broker connection
	Cloud  *neo.Client
	Broker *mqtt.Client

	// High-level services
	Bridge *bridge.Bridge
	Health *HealthService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	s.Registry = prometheus.NewRegistry()
	s.Metrics = metrics.NewRecorder(s.Registry)

	s.Cloud = neo.NewClient(cfg.Neo.Username, cfg.Neo.Password, neo.Options{
		BaseURL:    cfg.Neo.BaseURL,
		Timeout:    cfg.Neo.Timeout.Duration(),
		PayloadLog: neo.PayloadLogMode(cfg.Neo.PayloadLog),
		Observer:   s.Metrics,
	})

	s.Broker = mqtt.NewClient(mqtt.Config{
		Broker:    cfg.MQTT.Broker,
		ClientID:  cfg.MQTT.ClientID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		TopicRoot: cfg.MQTT.TopicRoot,
	})

	s.Health = NewHealthService(cfg, s.Registry)

	return s, nil
}

// Start starts all services in the correct order.
// The onFatalError callback is called when a fatal error occurs (e.g. the
// cloud session cannot be re-authenticated).
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	if err := s.Broker.Connect(); err != nil {
		return err
	}

	s.Bridge = bridge.New(s.Cloud, s.Broker, s.cfg.Bridge.RefreshInterval.Duration(), onFatalError)
	if err := s.Bridge.Start(ctx); err != nil {
		return err
	}

	s.Health.Start(ctx)
	return nil
}

// Stop shuts down services in reverse order.
func (s *Services) Stop() error {
	if s.Bridge != nil {
		s.Bridge.Stop()
	}
	if s.Broker != nil {
		s.Broker.Disconnect()
	}
	return nil
}
