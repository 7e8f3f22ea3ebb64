// ABOUTME: SQLite database schema for the session journal
// ABOUTME: Sessions own documents, documents own chunks with their vectors, sessions own turns
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Sessions known to the journal
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexed documents; seq preserves first-insertion order across re-indexing
CREATE TABLE IF NOT EXISTS documents (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    doc_id TEXT NOT NULL,
    format TEXT NOT NULL,
    source TEXT,
    chunk_count INTEGER NOT NULL DEFAULT 0,
    indexed_at DATETIME NOT NULL,
    UNIQUE (session_id, doc_id)
);

-- Chunks with their embedding vectors stored as little-endian float64 BLOBs
CREATE TABLE IF NOT EXISTS chunks (
    session_id TEXT NOT NULL,
    doc_id TEXT NOT NULL,
    chunk_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    text TEXT NOT NULL,
    start_pos INTEGER NOT NULL,
    end_pos INTEGER NOT NULL,
    vector BLOB NOT NULL,
    PRIMARY KEY (session_id, chunk_id),
    FOREIGN KEY (session_id, doc_id) REFERENCES documents(session_id, doc_id) ON DELETE CASCADE
);

-- Conversation turns; seq orders them oldest first
CREATE TABLE IF NOT EXISTS turns (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    turn_id TEXT NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    sources TEXT,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(session_id, doc_id);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
