// ABOUTME: Test scenario data structures for RAGAS benchmarks
// ABOUTME: Defines document corpora, question turns and ground truth for each test
package ragas

// TestScenario represents a complete RAGAS benchmark test
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Documents   []CorpusDocument
	Turns       []ConversationTurn
	GroundTruth GroundTruth
}

// CorpusDocument is a file indexed before the conversation starts
type CorpusDocument struct {
	Name    string // file name; the extension selects the loader
	Content string
}

// ConversationTurn represents a single question in a test conversation
type ConversationTurn struct {
	TurnNumber int
	Question   string
}

// GroundTruth defines expected outcomes for RAGAS evaluation
type GroundTruth struct {
	// Expected response for final query turn
	FinalQueryTurn      int
	ExpectedInResponse  []string // Strings that MUST appear in response
	ForbiddenInResponse []string // Strings that MUST NOT appear in response

	// Context retrieval expectations
	ExpectedContextItems []string // Passages that should be retrieved

	// Documents the answer should cite
	ExpectedSources []string
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string         `json:"test_id" yaml:"test_id"`
	TestName           string         `json:"test_name" yaml:"test_name"`
	FaithfulnessScore  float64        `json:"faithfulness" yaml:"faithfulness"`
	ContextRecallScore float64        `json:"context_recall" yaml:"context_recall"`
	SourceScore        float64        `json:"source_attribution" yaml:"source_attribution"`
	OverallScore       float64        `json:"overall" yaml:"overall"`
	Status             string         `json:"status" yaml:"status"` // "PASS" or "FAIL"
	Details            map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	ErrorMessage       string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// GetSingleFactTest returns a lookup answered by one passage of one document
func GetSingleFactTest() TestScenario {
	return TestScenario{
		ID:          "single_fact",
		Name:        "Single Fact Lookup",
		Description: "One document holds the answer in a single sentence",
		Documents: []CorpusDocument{
			{Name: "france.txt", Content: "France is a country in Western Europe. The capital of France is Paris. France is famous for its wine and cheese."},
		},
		Turns: []ConversationTurn{
			{TurnNumber: 1, Question: "What is the capital of France?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:       1,
			ExpectedInResponse:   []string{"Paris"},
			ExpectedContextItems: []string{"capital of France is Paris"},
			ExpectedSources:      []string{"france.txt"},
		},
	}
}

// GetDistractorTest returns a lookup where a similar document must not leak into the answer
func GetDistractorTest() TestScenario {
	return TestScenario{
		ID:          "distractor",
		Name:        "Distractor Document",
		Description: "Two documents share vocabulary; only one answers the question",
		Documents: []CorpusDocument{
			{Name: "api-v1.md", Content: "# API v1\n\nThe v1 API rate limit is 100 requests per minute. Version 1 is deprecated."},
			{Name: "api-v2.md", Content: "# API v2\n\nThe v2 API rate limit is 900 requests per minute. Version 2 supports streaming."},
		},
		Turns: []ConversationTurn{
			{TurnNumber: 1, Question: "What is the v2 API rate limit?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:       1,
			ExpectedInResponse:   []string{"900"},
			ForbiddenInResponse:  []string{"100 requests"},
			ExpectedContextItems: []string{"900 requests per minute"},
			ExpectedSources:      []string{"api-v2.md"},
		},
	}
}

// GetFollowUpTest returns a two-turn conversation where the second question leans on the first
func GetFollowUpTest() TestScenario {
	return TestScenario{
		ID:          "follow_up",
		Name:        "Follow-up Question",
		Description: "The second question continues the conversation about the same document",
		Documents: []CorpusDocument{
			{Name: "rivers.html", Content: "<html><head><title>Rivers</title></head><body><h1>Rivers</h1><p>The Danube river flows through Vienna and Budapest.</p><p>The Danube river is about 2850 kilometres long.</p></body></html>"},
			{Name: "lakes.txt", Content: "Lake Baikal in Siberia is the deepest lake in the world."},
		},
		Turns: []ConversationTurn{
			{TurnNumber: 1, Question: "Which cities does the Danube river flow through?"},
			{TurnNumber: 2, Question: "How long is the Danube river in kilometres?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:       2,
			ExpectedInResponse:   []string{"2850"},
			ForbiddenInResponse:  []string{"Baikal"},
			ExpectedContextItems: []string{"2850 kilometres"},
			ExpectedSources:      []string{"rivers.html"},
		},
	}
}

// GetAllTests returns every benchmark scenario
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetSingleFactTest(),
		GetDistractorTest(),
		GetFollowUpTest(),
	}
}

// GetTest returns the scenario with the given ID
func GetTest(id string) (TestScenario, bool) {
	for _, s := range GetAllTests() {
		if s.ID == id {
			return s, true
		}
	}
	return TestScenario{}, false
}
