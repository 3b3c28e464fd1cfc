package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gradetrack/internal/grade"
	"gradetrack/internal/gradesys"
	"gradetrack/internal/server/util"
)

// GradeHandler exposes grade system management and assignment grading.
type GradeHandler struct {
	Systems *gradesys.Service
	Grades  *grade.Service
}

// AddSystem handles POST /grades/system/add
func (h *GradeHandler) AddSystem(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var reqBody gradesys.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sys, err := h.Systems.Setup(r.Context(), claims.UserID, reqBody)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, sys)
}

// SearchSystems handles GET /grades/system/search?query=
func (h *GradeHandler) SearchSystems(w http.ResponseWriter, r *http.Request) {
	systems, err := h.Systems.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"gradeSystems": systems})
}

// SetGrade handles POST /grades/set
func (h *GradeHandler) SetGrade(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var reqBody grade.SetAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.Grades.SetAssignmentGrade(r.Context(), claims.UserID, reqBody); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "grade recorded successfully",
	})
}
