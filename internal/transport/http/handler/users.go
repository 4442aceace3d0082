package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gym-api/internal/application/user"
	"github.com/gym-api/internal/domain"
)

// multipartOverhead leaves room for form boundaries around the avatar part.
const multipartOverhead = 1 << 20

// UserHandler handles user profile and admin endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	h.writeProfile(w, r, actor.UserID)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}
	h.writeProfile(w, r, chi.URLParam(r, "id"))
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, next, err := h.svc.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, UserPageEnvelope{Data: users, NextCursor: next})
}

// Update lets a user edit their own profile.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	targetID := chi.URLParam(r, "id")
	if actor.UserID != targetID {
		writeError(w, http.StatusForbidden, "cannot update another user")
		return
	}
	h.update(w, r, targetID, false)
}

// AdminUpdate edits any user, including the user type.
func (h *UserHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "id"), true)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, userID string, asAdmin bool) {
	var req domain.UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.svc.Update(r.Context(), userID, req, asAdmin)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user deleted"})
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, user.MaxAvatarSize+multipartOverhead)
	if err := r.ParseMultipartForm(user.MaxAvatarSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing avatar field")
		return
	}
	defer f.Close()

	u, err := h.svc.UploadAvatar(r.Context(), actor.UserID, user.AvatarUpload{
		Reader:   f,
		Filename: header.Filename,
		Size:     header.Size,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Avatar redirects to a short-lived presigned URL for the user's avatar.
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.AvatarURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
