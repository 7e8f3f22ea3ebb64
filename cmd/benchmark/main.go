// ABOUTME: Command-line benchmark runner for RAGAS tests
// ABOUTME: Executes RAGAS benchmarks against the engine and writes JSON or YAML results
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/harper/ragchat/benchmarks/ragas"
	"github.com/harper/ragchat/internal/config"
)

func main() {
	testID := flag.String("test", "", "Run specific test (single_fact, distractor, follow_up). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for results (.json, .yaml or .yml)")
	offline := flag.Bool("offline", false, "Use the hash embedder and extractive answers instead of model endpoints")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil && *verbose {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("ragchat RAGAS Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner, err := ragas.NewBenchmarkRunner(cfg, *offline, *verbose, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to create benchmark runner: %v", err)
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []ragas.TestResult
	if *testID == "" {
		fmt.Println("Running all RAGAS benchmark tests...")
		results, err = runner.RunAllTests(ctx)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		scenario, ok := ragas.GetTest(strings.ToLower(*testID))
		if !ok {
			log.Fatalf("Unknown test ID: %s (valid options: single_fact, distractor, follow_up)", *testID)
		}
		fmt.Printf("Running test: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			log.Fatalf("Test failed: %v", err)
		}
		results = []ragas.TestResult{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Source Attribution: %.2f\n", result.SourceScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	summary := ragas.Summarize(results)
	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := ragas.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		stop()
		os.Exit(1)
	}
}
