package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gym-api/internal/application/membership"
	"github.com/gym-api/internal/domain"
)

// MembershipHandler handles membership plans and enrollment.
type MembershipHandler struct {
	svc membership.Service
}

func NewMembershipHandler(svc membership.Service) *MembershipHandler {
	return &MembershipHandler{svc: svc}
}

func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	if plans == nil {
		plans = []domain.Membership{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *MembershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MembershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MembershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MembershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "membership deleted"})
}

func (h *MembershipHandler) MyMembership(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	um, err := h.svc.MyMembership(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, um)
}

func (h *MembershipHandler) Join(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	um, err := h.svc.Join(r.Context(), actor.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, um)
}
