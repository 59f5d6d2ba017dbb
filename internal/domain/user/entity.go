// Package user contém o usuário autenticado (professor ou coordenador).
package user

import (
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// Role é o perfil de acesso do usuário.
type Role string

const (
	// RoleProfessor - professor de Educação Física, perfil padrão no cadastro.
	RoleProfessor Role = "professor"
	// RoleCoordinator - coordenador pedagógico.
	RoleCoordinator Role = "coordenador"
)

// IsValid verifica se o perfil é conhecido.
func (r Role) IsValid() bool {
	return r == RoleProfessor || r == RoleCoordinator
}

// Label devolve o nome do perfil para exibição.
func (r Role) Label() string {
	switch r {
	case RoleProfessor:
		return "Professor"
	case RoleCoordinator:
		return "Coordenador"
	default:
		return string(r)
	}
}

// ParseRole converte texto em Role. Texto vazio vira RoleProfessor.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleProfessor, nil
	}
	r := Role(s)
	if !r.IsValid() {
		return "", shared.ErrInvalidRole
	}
	return r, nil
}

// User é o usuário logado, como devolvido pela API de autenticação.
// As tags JSON definem o formato gravado no armazenamento de sessão.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	School string `json:"school,omitempty"`
}

// IsZero retorna true se o usuário não foi carregado.
func (u User) IsZero() bool {
	return u.ID == "" && u.Email == ""
}

// Has retorna true se o usuário tem o perfil pedido.
// Um perfil vazio não restringe nada.
func (u User) Has(role Role) bool {
	return role == "" || u.Role == role
}
