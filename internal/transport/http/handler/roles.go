package handler

import (
	"net/http"

	"github.com/gym-api/internal/domain"
	"github.com/samber/lo"
)

type RoleView struct {
	Name string `json:"name"`
}

// ListRoles returns the assignable user types.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, lo.Map(domain.Roles, func(role string, _ int) RoleView {
		return RoleView{Name: role}
	}))
}
