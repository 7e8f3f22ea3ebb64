// ABOUTME: MCP tool handler implementations for the ragchat server
// ABOUTME: Each handler resolves its session, runs one engine operation and returns JSON text
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/harper/ragchat/internal/app"
	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/loader"
	"github.com/harper/ragchat/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	app            *app.App
	defaultSession string
}

type documentResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

// session returns the session named in the request, or the default one
func (h *Handlers) session(ctx context.Context, request mcp.CallToolRequest) (*core.Session, error) {
	id := request.GetString("session_id", "")
	if id == "" {
		id = h.defaultSession
	}
	return h.app.Orchestrator.Session(ctx, id)
}

// errorResult reports a failed operation, flagging temporary failures
func errorResult(op string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s failed: %v", op, err)
	if core.IsRetryable(err) {
		msg += " (temporary, retry later)"
	}
	return mcp.NewToolResultError(msg)
}

// jsonResult marshals a response into a text result
func jsonResult(response any) *mcp.CallToolResult {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err))
	}
	return mcp.NewToolResultText(string(responseJSON))
}

// IndexFiles handles the index_files tool
func (h *Handlers) IndexFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := stringArray(request, "paths")
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths argument is required and must be a non-empty array of strings"), nil
	}

	opts := h.app.ChunkOptions()
	opts.Size = request.GetInt("chunk_size", opts.Size)
	opts.Overlap = request.GetInt("chunk_overlap", opts.Overlap)

	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("index", err), nil
	}

	expanded, err := loader.ExpandPaths(paths)
	if err != nil {
		return errorResult("index", err), nil
	}
	docs, loadFailures := loader.LoadFiles(expanded)

	report, err := sess.Index(ctx, docs, opts)
	if err != nil {
		return errorResult("index", err), nil
	}

	return jsonResult(map[string]any{
		"session_id":     sess.ID(),
		"documents":      documentResults(report.Results, loadFailures),
		"indexed":        len(report.Succeeded()),
		"failed":         len(report.Failed()) + len(loadFailures),
		"chunks_indexed": report.TotalChunks(),
		"chunk_size":     opts.Size,
		"chunk_overlap":  opts.Overlap,
	}), nil
}

// documentResults flattens index and load outcomes, index results first
func documentResults(indexed, failed []models.DocumentResult) []documentResult {
	results := make([]documentResult, 0, len(indexed)+len(failed))
	for _, res := range slices.Concat(indexed, failed) {
		r := documentResult{DocumentID: res.DocumentID, Chunks: res.Chunks}
		if res.Err != nil {
			r.Chunks = 0
			r.Error = res.Err.Error()
		}
		results = append(results, r)
	}
	return results
}

// Ask handles the ask tool
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("ask", err), nil
	}

	answer, err := sess.Ask(ctx, question)
	if err != nil {
		return errorResult("ask", err), nil
	}

	return jsonResult(map[string]any{
		"answer":  answer.Text,
		"sources": answer.Sources,
		"turn_id": answer.Turn.TurnID,
	}), nil
}

// ClearMemory handles the clear_memory tool
func (h *Handlers) ClearMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("clear memory", err), nil
	}
	if err := sess.ClearMemory(ctx); err != nil {
		return errorResult("clear memory", err), nil
	}
	return jsonResult(map[string]any{
		"success":    true,
		"session_id": sess.ID(),
	}), nil
}

// RemoveDocument handles the remove_document tool
func (h *Handlers) RemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id argument is required and must be a string"), nil
	}

	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("remove document", err), nil
	}
	if err := sess.RemoveDocument(ctx, docID); err != nil {
		return errorResult("remove document", err), nil
	}

	return jsonResult(map[string]any{
		"success":     true,
		"document_id": docID,
		"state":       sess.State(),
	}), nil
}

// ListDocuments handles the list_documents tool
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("list documents", err), nil
	}

	docs := sess.Documents()
	return jsonResult(map[string]any{
		"session_id": sess.ID(),
		"documents":  docs,
		"count":      len(docs),
	}), nil
}

// GetMemory handles the get_memory tool
func (h *Handlers) GetMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("get memory", err), nil
	}

	turns := sess.Memory()
	return jsonResult(map[string]any{
		"session_id":    sess.ID(),
		"turns":         turns,
		"memory_window": h.app.Orchestrator.Config().MemoryWindow,
	}), nil
}

// GetStats handles the get_stats tool
func (h *Handlers) GetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("get stats", err), nil
	}
	return jsonResult(sess.Stats()), nil
}

// ResetSession handles the reset_session tool
func (h *Handlers) ResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, request)
	if err != nil {
		return errorResult("reset session", err), nil
	}
	if err := sess.Reset(ctx); err != nil {
		return errorResult("reset session", err), nil
	}
	return jsonResult(map[string]any{
		"success":    true,
		"session_id": sess.ID(),
		"state":      models.StateEmpty,
	}), nil
}

// stringArray extracts a string array argument, skipping non-string items
func stringArray(request mcp.CallToolRequest, key string) []string {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := args[key].([]any)
	if !ok {
		if s, ok := args[key].(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
