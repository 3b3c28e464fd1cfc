package handlers

import (
	"net/http"

	"gradetrack/internal/admin"
	"gradetrack/internal/metrics"
	"gradetrack/internal/server/util"
)

// AdminHandler exposes maintenance endpoints.
type AdminHandler struct {
	Admin *admin.Service
}

// ClearDatabase handles DELETE /admin/db/clear
func (h *AdminHandler) ClearDatabase(w http.ResponseWriter, r *http.Request) {
	result, err := h.Admin.ClearDatabase(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Admin.Stats(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, counts)
}

// Health handles GET /healthz
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	rtt, err := h.Admin.Ping(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	metrics.ObserveDBPing(rtt)

	util.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"dbPing": rtt.String(),
	})
}
