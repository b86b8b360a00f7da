package server

import (
	"context"
	
	"github.com/your-org/5g-network/nf/amf/internal/config"
	"go.uber.org/zap"
)

// AMFServer represents the AMF server
type AMFServer struct {
	config *config.Config
	logger *zap.Logger
}

// NewAMFServer creates a new AMF server instance
func NewAMFServer(cfg *config.Config, logger *zap.Logger) (*AMFServer, error) {
	return &AMFServer{
		config: cfg,
		logger: logger,
	}, nil
}

// Start starts the AMF server
func (s *AMFServer) Start(ctx context.Context) error {
	s.logger.Info("AMF server starting")
	// TODO: Implement server startup
	return nil
}

// Stop stops the AMF server gracefully
func (s *AMFServer) Stop(ctx context.Context) error {
	s.logger.Info("AMF server stopping")
	// TODO: Implement graceful shutdown
	return nil
}
