package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/agents"
	"github.com/cloudprompt/aws-devops-agent/pkg/aws"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load .env if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

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

	// One-shot mode when a prompt is given as arguments
	if len(os.Args) > 1 {
		prompt := strings.Join(os.Args[1:], " ")
		printJSON(agent.ProcessPrompt(ctx, prompt))
		return
	}

	runInteractive(ctx, agent)
}

func runInteractive(ctx context.Context, agent *agents.DevOpsAgent) {
	fmt.Println("AWS DevOps Agent")
	fmt.Println("Type 'exit' to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nEnter your prompt: ")
		if !scanner.Scan() {
			return
		}

		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "exit" || prompt == "quit" {
			return
		}

		envelope := agent.ProcessPrompt(ctx, prompt)
		printJSON(envelope)

		if !envelope.RequiresConfirmation {
			continue
		}

		fmt.Print("\nDo you want to proceed? (yes/no): ")
		if !scanner.Scan() {
			return
		}

		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "yes" && answer != "y" {
			fmt.Println("Operation cancelled")
			continue
		}

		result := agent.ExecuteOperation(ctx, envelope, true)
		printJSON(result)
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(data))
}
