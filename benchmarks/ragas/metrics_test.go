// ABOUTME: Tests for the RAGAS metric calculations
// ABOUTME: Covers faithfulness, recall, attribution and pass/fail gating
package ragas

import (
	"strings"
	"testing"
)

func TestCalculateFaithfulness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		response  string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"all expected, case insensitive", "the rate limit is 900 RPM", []string{"900", "rpm"}, nil, 1.0},
		{"missing expected", "I do not know", []string{"900"}, nil, 0.5},
		{"forbidden present", "900, or maybe 100 requests", []string{"900"}, []string{"100 requests"}, 0.5},
		{"missing and forbidden", "100 requests", []string{"900"}, []string{"100 requests"}, 0.0},
		{"nothing required", "anything", nil, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateFaithfulness(tt.response, tt.expected, tt.forbidden)
			if got != tt.want {
				t.Errorf("score = %v, want %v (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestCalculateContextRecall(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name     string
		context  []string
		expected []string
		want     float64
	}{
		{"none required", nil, nil, 1.0},
		{"all found across items", []string{"The capital", "of France is Paris."}, []string{"capital", "paris"}, 1.0},
		{"half found", []string{"Paris"}, []string{"Paris", "Berlin"}, 0.5},
		{"nothing retrieved", nil, []string{"Paris"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateContextRecall(tt.context, tt.expected)
			if got != tt.want {
				t.Errorf("recall = %v, want %v (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestCalculateSourceAttribution(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name     string
		cited    []string
		expected []string
		want     float64
	}{
		{"none required", nil, nil, 1.0},
		{"exact", []string{"a.txt"}, []string{"a.txt"}, 1.0},
		{"extra citations allowed", []string{"a.txt", "b.txt"}, []string{"a.txt"}, 1.0},
		{"missing", []string{"b.txt"}, []string{"a.txt"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := m.CalculateSourceAttribution(tt.cited, tt.expected)
			if got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTest(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := GetDistractorTest()

	pass := m.EvaluateTest(scenario, "The v2 limit is 900 requests per minute [1].",
		[]string{"The v2 API rate limit is 900 requests per minute."}, []string{"api-v2.md"})
	if pass.Status != "PASS" || pass.OverallScore != 1.0 {
		t.Errorf("result = %+v, want PASS with overall 1.0", pass)
	}

	fail := m.EvaluateTest(scenario, "It is 100 requests per minute.",
		[]string{"The v1 API rate limit is 100 requests per minute."}, []string{"api-v1.md"})
	if fail.Status != "FAIL" {
		t.Errorf("status = %s, want FAIL", fail.Status)
	}
	if fail.FaithfulnessScore != 0.0 {
		t.Errorf("faithfulness = %v, want 0", fail.FaithfulnessScore)
	}
}

func TestScenariosAreWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range GetAllTests() {
		t.Run(s.ID, func(t *testing.T) {
			if seen[s.ID] {
				t.Fatalf("duplicate scenario ID %q", s.ID)
			}
			seen[s.ID] = true

			if len(s.Documents) == 0 || len(s.Turns) == 0 {
				t.Fatal("scenario needs documents and turns")
			}
			last := s.Turns[len(s.Turns)-1].TurnNumber
			if s.GroundTruth.FinalQueryTurn != last {
				t.Errorf("FinalQueryTurn = %d, want last turn %d", s.GroundTruth.FinalQueryTurn, last)
			}

			// every expected context item must exist somewhere in the corpus
			var corpus strings.Builder
			for _, d := range s.Documents {
				corpus.WriteString(d.Content)
			}
			for _, item := range s.GroundTruth.ExpectedContextItems {
				if !strings.Contains(corpus.String(), item) {
					t.Errorf("expected context %q is not in the corpus", item)
				}
			}

			if got, ok := GetTest(s.ID); !ok || got.Name != s.Name {
				t.Errorf("GetTest(%q) did not return the scenario", s.ID)
			}
		})
	}
}
