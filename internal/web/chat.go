package web

import (
	"net/http"
	"strings"
)

func (s *Server) handleChatIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(chatHTML)
}

// handleSessionStatus reports whether the session holds an API key.
// The pages use it to render the key badge.
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	keySet := false
	if sess, ok := s.sessions.Get(r); ok {
		keySet = sess.HasAPIKey()
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"api_key_set": keySet})
}

// handleProcessCommand runs one chat command. The reply is always 200
// with a text answer; API failures are answers, not HTTP errors.
func (s *Server) handleProcessCommand(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(getClientIP(r)) {
		WriteErrorCtx(w, r, http.StatusTooManyRequests, "Too many commands, slow down")
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}
	command := r.FormValue("command")

	sess, err := s.sessions.GetOrIssue(w, r)
	if err != nil {
		s.log.Error("issue session", "error", err)
		WriteErrorCtx(w, r, http.StatusInternalServerError, "Session error")
		return
	}

	reply := sess.Bot.Process(r.Context(), command)
	s.registry.RecordChatCommand(commandVerb(command), nil)

	WriteJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// handleClearAPIKey drops the session's key.
func (s *Server) handleClearAPIKey(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessions.Get(r); ok {
		sess.Bot.ClearAPIKey()
	}
	WriteSuccess(w)
}

// commandVerb extracts the first word for the metrics label so keys
// and IDs never land in a label value.
func commandVerb(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "empty"
	}
	return strings.ToLower(fields[0])
}
