package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleTranslator Role = "translator"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTranslator, RoleAdmin:
		return true
	}
	return false
}

type Profile struct {
	ID                   uuid.UUID `db:"id"`
	Email                string    `db:"email"`
	PasswordHash         string    `db:"password_hash"`
	FirstName            string    `db:"first_name"`
	LastName             string    `db:"last_name"`
	Country              *string   `db:"country"`
	Phone                *string   `db:"phone"`
	Role                 Role      `db:"role"`
	IsApprovedTranslator bool      `db:"is_approved_translator"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// DisplayName is the name shown to other parties, falling back to the email.
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
