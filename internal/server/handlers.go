package server

import (
	"encoding/json"
	"net/http"

	"github.com/leapstack-labs/leapchunk/pkg/chunk"
)

// chunkRequest is the body of POST /chunk.
type chunkRequest struct {
	Content    string `json:"content"`
	SourcePath string `json:"source_path"`
	Dialect    string `json:"dialect,omitempty"`
	MaxTokens  int    `json:"max_tokens,omitempty"`
}

// chunkResponse is the body of a successful POST /chunk.
type chunkResponse struct {
	Dialect string        `json:"dialect"`
	Chunks  []chunk.Chunk `json:"chunks"`
}

// batchRequest is the body of POST /chunk/batch.
type batchRequest struct {
	Files     []batchFile `json:"files"`
	Dialect   string      `json:"dialect,omitempty"`
	MaxTokens int         `json:"max_tokens,omitempty"`
}

type batchFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// batchResponse carries one entry per input file; individual failures
// never fail the request.
type batchResponse struct {
	Results []batchResult `json:"results"`
}

type batchResult struct {
	Path    string        `json:"path"`
	Success bool          `json:"success"`
	Chunks  []chunk.Chunk `json:"chunks,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// resolveRequest applies server defaults to per-request overrides. An
// unknown dialect tag or a negative token budget is a client error.
func (s *Server) resolveRequest(dialect string, maxTokens int) (chunk.Dialect, int, error) {
	d := s.cfg.Dialect
	if dialect != "" {
		parsed, err := chunk.ParseDialect(dialect)
		if err != nil {
			return 0, 0, err
		}
		d = parsed
	}
	if maxTokens == 0 {
		maxTokens = s.cfg.MaxTokens
	}
	if err := (chunk.Options{Dialect: d, MaxTokens: maxTokens}).Validate(); err != nil {
		return 0, 0, err
	}
	return d, maxTokens, nil
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	d, maxTokens, err := s.resolveRequest(req.Dialect, req.MaxTokens)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	chunks, err := chunk.ChunkFileWithOptions(req.Content, chunk.Options{
		SourcePath: req.SourcePath,
		Dialect:    d,
		MaxTokens:  maxTokens,
		Logger:     s.logger,
	})
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	resolved := d.Resolve(req.SourcePath, req.Content)
	writeJSON(w, http.StatusOK, chunkResponse{Dialect: resolved.String(), Chunks: chunks})
}

func (s *Server) handleChunkBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if len(req.Files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "files is required"})
		return
	}

	d, maxTokens, err := s.resolveRequest(req.Dialect, req.MaxTokens)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	inputs := make([]chunk.FileInput, len(req.Files))
	for i, f := range req.Files {
		inputs[i] = chunk.FileInput{Path: f.Path, Content: f.Content}
	}

	results := chunk.ChunkFiles(r.Context(), inputs, chunk.BatchOptions{
		Dialect:   d,
		MaxTokens: maxTokens,
		Workers:   s.cfg.Workers,
		Logger:    s.logger,
	})

	resp := batchResponse{Results: make([]batchResult, len(results))}
	for i, res := range results {
		entry := batchResult{Path: res.Path, Success: res.Success(), Chunks: res.Chunks}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		resp.Results[i] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
