// ABOUTME: Test runner for RAGAS benchmarks - executes scenarios and collects results
// ABOUTME: Indexes each scenario's corpus into a fresh session, asks its questions and scores the answer
package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/ragchat/internal/app"
	"github.com/harper/ragchat/internal/config"
	"github.com/harper/ragchat/internal/loader"
	"github.com/harper/ragchat/internal/models"
)

// BenchmarkRunner executes RAGAS benchmark tests
type BenchmarkRunner struct {
	app      *app.App
	recorder *recordingGenerator
	metrics  *MetricsCalculator
	out      io.Writer
	verbose  bool
}

// NewBenchmarkRunner creates a runner. Offline runs use the hash embedder and the
// extractive generator so no model endpoint is needed.
func NewBenchmarkRunner(cfg *config.Config, offline, verbose bool, out io.Writer) (*BenchmarkRunner, error) {
	if out == nil {
		out = io.Discard
	}

	// sessions are throwaway
	cfg.Persist = false

	recorder := &recordingGenerator{}
	opts := []app.Option{app.WithGenerator(recorder)}
	if offline {
		cfg.EmbeddingProvider = config.ProviderHash
		recorder.inner = ExtractiveGenerator{}
	} else {
		gen, err := app.NewGenerator(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		recorder.inner = gen
	}

	a, err := app.New(cfg, nil, opts...)
	if err != nil {
		return nil, err
	}

	return &BenchmarkRunner{
		app:      a,
		recorder: recorder,
		metrics:  NewMetricsCalculator(),
		out:      out,
		verbose:  verbose,
	}, nil
}

// Close cleans up benchmark runner resources
func (r *BenchmarkRunner) Close() {
	_ = r.app.Close()
}

func (r *BenchmarkRunner) logf(format string, args ...any) {
	if r.verbose {
		_, _ = fmt.Fprintf(r.out, format, args...)
	}
}

// RunTest executes a single benchmark test in its own session
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	r.logf("\n========================================\n")
	r.logf("RUNNING: %s\n", scenario.Name)
	r.logf("========================================\n")
	r.logf("Description: %s\n\n", scenario.Description)

	sess, err := r.app.Orchestrator.NewSession(ctx)
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer r.app.Orchestrator.Close(sess.ID())

	docs := make([]models.Document, 0, len(scenario.Documents))
	for _, d := range scenario.Documents {
		doc, err := loader.LoadBytes(d.Name, []byte(d.Content))
		if err != nil {
			return TestResult{}, fmt.Errorf("setup failed: %w", err)
		}
		docs = append(docs, doc)
	}

	report, err := sess.Index(ctx, docs, r.app.ChunkOptions())
	if err != nil {
		return TestResult{}, fmt.Errorf("setup failed: %w", err)
	}
	if failed := report.Failed(); len(failed) > 0 {
		return TestResult{}, fmt.Errorf("setup failed: %s: %w", failed[0].DocumentID, failed[0].Err)
	}
	r.logf("✓ Indexed %d document(s), %d chunk(s)\n", len(docs), report.TotalChunks())

	var (
		finalResponse    string
		retrievedContext []string
		citedDocuments   []string
	)

	for _, turn := range scenario.Turns {
		r.logf("[Turn %d] User: %s\n", turn.TurnNumber, turn.Question)

		start := time.Now()
		answer, err := sess.Ask(ctx, turn.Question)
		if err != nil {
			return TestResult{}, fmt.Errorf("turn %d failed: %w", turn.TurnNumber, err)
		}
		r.logf("[Turn %d] AI (%s): %s\n\n", turn.TurnNumber, time.Since(start).Round(time.Millisecond), truncateRunes(answer.Text, 150))

		if turn.TurnNumber == scenario.GroundTruth.FinalQueryTurn {
			finalResponse = answer.Text
			retrievedContext = r.recorder.lastContext()
			citedDocuments = citedDocs(answer.Sources)
		}
	}

	result := r.metrics.EvaluateTest(scenario, finalResponse, retrievedContext, citedDocuments)

	r.logf("\n========================================\n")
	r.logf("RESULTS: %s\n", scenario.Name)
	r.logf("========================================\n")
	r.logf("Faithfulness: %.2f\n", result.FaithfulnessScore)
	r.logf("Context Recall: %.2f\n", result.ContextRecallScore)
	r.logf("Source Attribution: %.2f\n", result.SourceScore)
	r.logf("Overall Score: %.2f\n", result.OverallScore)
	r.logf("Status: %s\n", result.Status)
	r.logf("========================================\n\n")

	return result, nil
}

// RunAllTests executes all benchmark tests
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Summary is the exported form of a benchmark run
type Summary struct {
	Timestamp  string       `json:"timestamp" yaml:"timestamp"`
	TotalTests int          `json:"total_tests" yaml:"total_tests"`
	Passed     int          `json:"passed" yaml:"passed"`
	Failed     int          `json:"failed" yaml:"failed"`
	Results    []TestResult `json:"results" yaml:"results"`
}

// Summarize counts passes and failures
func Summarize(results []TestResult) Summary {
	s := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the summary as YAML for .yaml/.yml paths and JSON otherwise
func ExportResults(results []TestResult, outputPath string) error {
	summary := Summarize(results)

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(summary)
	default:
		data, err = json.MarshalIndent(summary, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// citedDocs returns the distinct documents behind the sources, in order
func citedDocs(sources []models.SourceRef) []string {
	var docs []string
	for _, s := range sources {
		if !slices.Contains(docs, s.DocumentID) {
			docs = append(docs, s.DocumentID)
		}
	}
	return docs
}
