package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/llm"
)

type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Prompt    string `json:"prompt"`
}

type chatResponse struct {
	SessionID  string `json:"sessionId"`
	Script     string `json:"script"`
	STL        string `json:"stl"`
	ArtifactID string `json:"artifactId,omitempty"`
}

// handleChat runs one design-tool turn: prompt in, generated script
// compiled to a mesh out, with the exchange recorded on the session.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt must not be empty")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		var err error
		if sessionID, err = s.store.Create(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	history, err := s.store.History(sessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}

	if err := s.store.AppendMessage(sessionID, "user", req.Prompt); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	script, err := s.llm.GenerateScript(r.Context(), req.Prompt, turns)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	result, err := s.engine.Render(r.Context(), script)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	if err := s.store.AppendMessage(sessionID, "assistant", script); err != nil {
		s.log.Warn("recording assistant turn failed",
			zap.String("session", sessionID), zap.Error(err))
	}
	artifactID, err := s.store.SaveArtifact(sessionID, script, result.Bytes)
	if err != nil {
		s.log.Warn("saving artifact failed",
			zap.String("session", sessionID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:  sessionID,
		Script:     script,
		STL:        encodeArtifact(result.Bytes),
		ArtifactID: artifactID,
	})
}
