package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"nlq-router/internal/agent"
	"nlq-router/internal/cli"
	"nlq-router/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		printUsage()
		return 1
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx := context.Background()

	switch command {
	case "help":
		printUsage()
		return 0

	case "resolve":
		resolver, cleanup, err := cli.BuildResolver()
		if err != nil {
			log.Printf("Failed to initialize resolver: %v", err)
			return 1
		}
		defer cleanup()

		if config.IsMockMode() {
			fmt.Println("Running in MOCK mode")
		}

		fallback, agentErr := agent.NewFallbackAgent(ctx, config.GetAPIKey())
		if agentErr != nil {
			log.Printf("Warning: failed to initialize AI fallback agent: %v", agentErr)
		}
		defer fallback.Close()

		if err := cli.RunResolve(ctx, resolver, fallback, args); err != nil {
			log.Printf("Command failed: %v", err)
			return 1
		}

	case "rules":
		cmd := cli.RulesCommand()
		cmd.SetArgs(args)
		if err := cmd.ExecuteContext(ctx); err != nil {
			log.Printf("Command failed: %v", err)
			return 1
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		return 1
	}

	return 0
}

func printUsage() {
	fmt.Println("NLQ Router CLI (Inspection Data Query Routing)")
	fmt.Println("Usage: nlq-router <command> [options]")
	fmt.Println("\nQuery Commands:")
	fmt.Println("  resolve \"<query text>\" [--diag]")
	fmt.Println("                 Route a free-text query to a data retrieval action and print the result.")
	fmt.Println("                 --diag additionally prints match diagnostics as JSON.")
	fmt.Println("\nRule Catalog Commands:")
	fmt.Println("  rules seed [--db=<conn>]       Insert the default inspection-domain rule set.")
	fmt.Println("  rules validate [--db=<conn>]   Run catalog integrity checks and report faulty rules.")
	fmt.Println("  rules list [--db=<conn>]       List the active, matchable rules.")
	fmt.Println("  rules eval [--verbose]         Replay every rule's example query and verify routing.")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  NLQ_STORE_TYPE         Set to 'mock' for disconnected mode, 'postgresql' for database mode (default)")
	fmt.Println("  NLQ_MOCK_DATA_PATH     Path to mock data directory (default: data/mocks)")
	fmt.Println("  DB_CONN_STRING         PostgreSQL connection string (required for database mode)")
	fmt.Println("  GEMINI_API_KEY         Enables richer AI fallback answers for unmatched queries (optional)")
	fmt.Println("\nWeb Server:")
	fmt.Println("  See cmd/web for the HTTP front end (resolve, chat sessions, rule introspection).")
}
