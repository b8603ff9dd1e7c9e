package handlers

import (
	"net/http"
)

// Health reports liveness and whether the decision journal is attached.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	journal := "disabled"
	if a.Decisions != nil {
		journal = "enabled"
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "journal": journal})
}
