package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gradetrack/internal/server/util"
	"gradetrack/internal/user"
)

// UserHandler exposes registration, login and profile endpoints.
type UserHandler struct {
	Users *user.Service
}

// RESTCredentialsRequest mirrors the expected JSON input for /users/register
// and /users/login.
type RESTCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.Users.Register(r.Context(), reqBody.Username, reqBody.Password); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "user registered successfully",
	})
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	token, err := h.Users.Login(r.Context(), reqBody.Username, reqBody.Password)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"message": "login successful",
	})
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	u, err := h.Users.Me(r.Context(), claims.UserID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, u)
}

// AcademicPath handles GET /users/my-academic-path
func (h *UserHandler) AcademicPath(w http.ResponseWriter, r *http.Request) {
	claims := util.CurrentClaims(r.Context())
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	view, err := h.Users.AcademicPath(r.Context(), claims.UserID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, view)
}
