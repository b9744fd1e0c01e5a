package api

import "net/http"

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.svc.ListParticipants(r.Context(), callerID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req roleRequest
	if err := s.decode(w, r, schemaRole, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.svc.UpdateRole(r.Context(), callerID(r), id, req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
