package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gradetrack/internal/course"
	"gradetrack/internal/courseeval"
	"gradetrack/internal/server/util"
)

// CourseHandler exposes enrollment, statistics, search and evaluation
// template endpoints.
type CourseHandler struct {
	Courses *course.Service
	Evals   *courseeval.Service
}

// Add handles POST /courses/add
func (h *CourseHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var reqBody course.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	u, err := h.Courses.Add(r.Context(), claims.UserID, reqBody)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, u)
}

// Remove handles DELETE /courses/remove
func (h *CourseHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var reqBody course.RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	u, err := h.Courses.Remove(r.Context(), claims.UserID, reqBody)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, u)
}

// Stats handles GET /courses/stats/{courseId}
func (h *CourseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "courseId is required")
		return
	}

	stats, err := h.Courses.Stats(r.Context(), courseID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, stats)
}

// Search handles GET /courses/search?query=
func (h *CourseHandler) Search(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// CreateEval handles POST /courses/eval/create
func (h *CourseHandler) CreateEval(w http.ResponseWriter, r *http.Request) {
	var reqBody courseeval.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	eval, err := h.Evals.Create(r.Context(), reqBody)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, eval)
}

// SetEval handles POST /courses/eval/set
func (h *CourseHandler) SetEval(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var reqBody courseeval.SetRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	u, err := h.Evals.Set(r.Context(), claims.UserID, reqBody)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, u)
}

// SearchEvals handles GET /courses/eval/search
func (h *CourseHandler) SearchEvals(w http.ResponseWriter, r *http.Request) {
	q := courseeval.SearchQuery{
		CourseEvalID: r.URL.Query().Get("courseEvalId"),
		CourseID:     r.URL.Query().Get("courseId"),
		Semester:     r.URL.Query().Get("semester"),
		Name:         r.URL.Query().Get("name"),
	}

	evals, err := h.Evals.Search(r.Context(), q)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"courseEvals": evals})
}
