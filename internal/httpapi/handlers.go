package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lumastack/agentdraft/internal/auditlog"
	"github.com/lumastack/agentdraft/internal/store"
	"github.com/lumastack/agentdraft/internal/synthesis"
)

type initialSynthesisRequest struct {
	SystemDescription string `json:"systemDescription"`
}

func (s *Server) handleSynthesisInitial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req initialSynthesisRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SystemDescription) == "" {
		writeError(w, http.StatusBadRequest, "systemDescription is required")
		return
	}

	started := time.Now()
	result, err := s.synth.InitialAnalysis(r.Context(), req.SystemDescription)
	s.auditSynthesis(auditlog.ActionSynthesisInitial, started, err, map[string]any{
		"description_chars": len(req.SystemDescription),
	})
	if err != nil {
		s.writeSynthesisError(w, err)
		return
	}
	writeSuccess(w, result)
}

type toolsSynthesisRequest struct {
	InitialAnalysis synthesis.AnalysisResult  `json:"initialAnalysis"`
	ToolSelections  []synthesis.ToolSelection `json:"toolSelections"`
}

func (s *Server) handleSynthesisTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req toolsSynthesisRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.InitialAnalysis.Agents) == 0 {
		writeError(w, http.StatusBadRequest, "initialAnalysis must contain at least one agent")
		return
	}

	started := time.Now()
	result, err := s.synth.RefineWithTools(r.Context(), req.InitialAnalysis, req.ToolSelections)
	s.auditSynthesis(auditlog.ActionSynthesisTools, started, err, map[string]any{
		"agents":     len(req.InitialAnalysis.Agents),
		"selections": len(req.ToolSelections),
	})
	if err != nil {
		s.writeSynthesisError(w, err)
		return
	}
	writeSuccess(w, result)
}

type diagramSynthesisRequest struct {
	Agents            []synthesis.Agent        `json:"agents"`
	Relationships     []synthesis.Relationship `json:"relationships,omitempty"`
	OrchestrationType string                   `json:"orchestrationType,omitempty"`
}

func (s *Server) handleSynthesisDiagram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req diagramSynthesisRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Agents) == 0 {
		writeError(w, http.StatusBadRequest, "agents is required")
		return
	}

	started := time.Now()
	diagram, err := s.synth.GenerateDiagram(r.Context(), req.Agents, req.Relationships, req.OrchestrationType)
	s.auditSynthesis(auditlog.ActionSynthesisDiagram, started, err, map[string]any{
		"agents": len(req.Agents),
	})
	if err != nil {
		s.writeSynthesisError(w, err)
		return
	}
	writeSuccess(w, diagram)
}

// writeSynthesisError maps pipeline failures onto the error envelope. All
// model/extraction failures are server-side from the client's perspective.
func (s *Server) writeSynthesisError(w http.ResponseWriter, err error) {
	var malformed *synthesis.MalformedJSONError
	var missing *synthesis.MissingFieldError
	switch {
	case errors.Is(err, synthesis.ErrNoJSONFound):
		writeError(w, http.StatusInternalServerError, "Failed to extract JSON from model response.")
	case errors.As(err, &malformed):
		writeError(w, http.StatusInternalServerError, "Model response contained malformed JSON.")
	case errors.As(err, &missing):
		writeError(w, http.StatusInternalServerError, missing.Error())
	case errors.Is(err, synthesis.ErrNoNodes):
		writeError(w, http.StatusInternalServerError, "Model response yielded no diagram nodes.")
	default:
		s.log.Error("synthesis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Synthesis failed.")
	}
}

func (s *Server) auditSynthesis(action string, started time.Time, err error, detail map[string]any) {
	if s.audit == nil {
		return
	}
	entry := auditlog.Entry{
		Action:     action,
		DurationMs: time.Since(started).Milliseconds(),
		Detail:     detail,
	}
	if err != nil {
		entry.Status = "failure"
		entry.Error = err.Error()
	}
	s.audit.Append(entry)
}

type designRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	Diagram     json.RawMessage `json:"diagram,omitempty"`
}

type designResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	Diagram     json.RawMessage `json:"diagram,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

func toDesignResponse(d store.Design) designResponse {
	resp := designResponse{
		ID:          d.DesignID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   time.UnixMilli(d.CreatedAtUnixMs).UTC().Format(time.RFC3339),
		UpdatedAt:   time.UnixMilli(d.UpdatedAtUnixMs).UTC().Format(time.RFC3339),
	}
	if d.AnalysisJSON != "" {
		resp.Analysis = json.RawMessage(d.AnalysisJSON)
	}
	if d.DiagramJSON != "" {
		resp.Diagram = json.RawMessage(d.DiagramJSON)
	}
	return resp
}

func (s *Server) handleDesigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req designRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		d, err := s.designs.Create(r.Context(), store.Design{
			Name:         req.Name,
			Description:  req.Description,
			AnalysisJSON: string(req.Analysis),
			DiagramJSON:  string(req.Diagram),
		})
		if err != nil {
			s.log.Error("design create failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save design.")
			return
		}
		if s.audit != nil {
			s.audit.Append(auditlog.Entry{Action: auditlog.ActionDesignSaved, DesignID: d.DesignID})
		}
		writeSuccess(w, toDesignResponse(d))

	case http.MethodGet:
		designs, err := s.designs.List(r.Context(), 100)
		if err != nil {
			s.log.Error("design list failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list designs.")
			return
		}
		out := make([]designResponse, 0, len(designs))
		for _, d := range designs {
			out = append(out, toDesignResponse(d))
		}
		writeSuccess(w, out)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleDesignByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/designs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "design not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		d, err := s.designs.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "design not found")
			return
		}
		if err != nil {
			s.log.Error("design get failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load design.")
			return
		}
		writeSuccess(w, toDesignResponse(d))

	case http.MethodPut:
		var req designRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		d, err := s.designs.Update(r.Context(), store.Design{
			DesignID:     id,
			Name:         req.Name,
			Description:  req.Description,
			AnalysisJSON: string(req.Analysis),
			DiagramJSON:  string(req.Diagram),
		})
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "design not found")
			return
		}
		if err != nil {
			s.log.Error("design update failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update design.")
			return
		}
		if s.audit != nil {
			s.audit.Append(auditlog.Entry{Action: auditlog.ActionDesignSaved, DesignID: d.DesignID})
		}
		writeSuccess(w, toDesignResponse(d))

	case http.MethodDelete:
		err := s.designs.Delete(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "design not found")
			return
		}
		if err != nil {
			s.log.Error("design delete failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete design.")
			return
		}
		if s.audit != nil {
			s.audit.Append(auditlog.Entry{Action: auditlog.ActionDesignDeleted, DesignID: id})
		}
		writeSuccess(w, map[string]string{"id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.mon == nil {
		writeSuccess(w, map[string]string{"state": "ok"})
		return
	}
	writeSuccess(w, s.mon.Snapshot(r.Context()))
}
