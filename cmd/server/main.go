package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/agents"
	"github.com/cloudprompt/aws-devops-agent/pkg/aws"
	"github.com/cloudprompt/aws-devops-agent/pkg/web"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load .env if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting AWS DevOps agent server...")

	// Initialize AWS client; prompts still process without one, execution
	// will report the missing client
	var provider agents.Provider
	awsClient, err := aws.NewClient(cfg.AWS.Region, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize AWS client, execution disabled")
	} else {
		provider = awsClient
	}

	agent, err := agents.New(cfg, provider, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DevOps agent")
	}

	server := web.NewServer(cfg, agent, logger)
	if err := server.Start(ctx); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server shutdown complete")
}
