package api

import (
	"context"
	"net/http"
	"strings"
)

func (s *Server) handleDefine(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		jsonError(w, "name query parameter is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.LLMTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, map[string]string{
		"definition": s.deps.Definer.Define(ctx, name),
	})
}
