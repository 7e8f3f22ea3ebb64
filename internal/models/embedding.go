// ABOUTME: Search result models for vector similarity retrieval
// ABOUTME: ScoredChunk pairs a chunk with its cosine similarity to a query
package models

// ScoredChunk is a chunk returned by a similarity search
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// SourceRef identifies a chunk an answer was grounded on
type SourceRef struct {
	ChunkID    string  `json:"chunk_id" yaml:"chunk_id"`
	DocumentID string  `json:"document_id" yaml:"document_id"`
	Index      int     `json:"index" yaml:"index"`
	Score      float64 `json:"score" yaml:"score"`
}

// SourceFor builds a SourceRef from a scored chunk
func SourceFor(sc ScoredChunk) SourceRef {
	return SourceRef{
		ChunkID:    sc.Chunk.ID,
		DocumentID: sc.Chunk.DocumentID,
		Index:      sc.Chunk.Index,
		Score:      sc.Score,
	}
}

// Answer is the result of asking a question in a session
type Answer struct {
	Text    string      `json:"answer" yaml:"answer"`
	Sources []SourceRef `json:"sources" yaml:"sources"`
	Turn    Turn        `json:"turn" yaml:"turn"`
	// History is the session memory right after this turn was recorded
	History []Turn      `json:"-" yaml:"-"`
}

// SourceIDs returns the chunk identifiers of the answer's sources, in order
func (a Answer) SourceIDs() []string {
	ids := make([]string, len(a.Sources))
	for i, s := range a.Sources {
		ids[i] = s.ChunkID
	}
	return ids
}

// Message is a single chat message sent to a generation capability
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
