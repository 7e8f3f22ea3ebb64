// ABOUTME: MCP tool definitions and registration for the ragchat server
// ABOUTME: Defines JSON schemas for the eight session tools exposed to agents
package mcp

import (
	"github.com/harper/ragchat/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var sessionProperty = map[string]any{
	"type":        "string",
	"description": "Session to operate on (default: the server's session)",
}

// sessionOnly is the schema of tools whose only argument is the session
func sessionOnly() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"session_id": sessionProperty,
		},
	}
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, a *app.App, defaultSession string) *Handlers {
	if defaultSession == "" {
		defaultSession = app.DefaultSessionID
	}
	handlers := &Handlers{
		app:            a,
		defaultSession: defaultSession,
	}

	// 1. index_files - Load files from disk and index them
	server.AddTool(mcp.Tool{
		Name:        "index_files",
		Description: "Index documents (txt, md, pdf, docx, html) from local paths into a session. Directories are searched recursively. Re-indexing a file replaces its previous chunks.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"paths": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Files or directories to index",
				},
				"chunk_size": map[string]any{
					"type":        "number",
					"description": "Characters per chunk (default from config)",
				},
				"chunk_overlap": map[string]any{
					"type":        "number",
					"description": "Characters shared by consecutive chunks (default from config)",
				},
				"session_id": sessionProperty,
			},
			Required: []string{"paths"},
		},
	}, handlers.IndexFiles)

	// 2. ask - Answer a question from the indexed documents
	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered from the session's indexed documents, with the recent conversation as context. Returns the answer and the chunks it cites.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The question to answer",
				},
				"session_id": sessionProperty,
			},
			Required: []string{"question"},
		},
	}, handlers.Ask)

	// 3. clear_memory - Forget the conversation, keep the documents
	server.AddTool(mcp.Tool{
		Name:        "clear_memory",
		Description: "Forget the session's conversation history. Indexed documents are kept.",
		InputSchema: sessionOnly(),
	}, handlers.ClearMemory)

	// 4. remove_document - Drop one document from the index
	server.AddTool(mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and all of its chunks from the session's index.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"document_id": map[string]any{
					"type":        "string",
					"description": "ID of the document, as shown by list_documents",
				},
				"session_id": sessionProperty,
			},
			Required: []string{"document_id"},
		},
	}, handlers.RemoveDocument)

	// 5. list_documents - Show indexed documents
	server.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents indexed in the session with their chunk counts.",
		InputSchema: sessionOnly(),
	}, handlers.ListDocuments)

	// 6. get_memory - Show the remembered conversation
	server.AddTool(mcp.Tool{
		Name:        "get_memory",
		Description: "Get the question and answer turns the session currently remembers, oldest first.",
		InputSchema: sessionOnly(),
	}, handlers.GetMemory)

	// 7. get_stats - Session statistics
	server.AddTool(mcp.Tool{
		Name:        "get_stats",
		Description: "Get session statistics: state, document and chunk counts, memory usage and model settings.",
		InputSchema: sessionOnly(),
	}, handlers.GetStats)

	// 8. reset_session - Clear everything
	server.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Clear the session's index and conversation memory.",
		InputSchema: sessionOnly(),
	}, handlers.ResetSession)

	return handlers
}
