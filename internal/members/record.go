package members

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/together/internal/domain"
)

// record is the stored shape of a member, shared by the file and SurrealDB
// directories.
type record struct {
	Idx          int64  `json:"idx" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Role         string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	ProfileImage string `json:"profileImage,omitempty"`
}

var validate = validator.New()

func (r record) validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("member %d: %w", r.Idx, err)
	}
	return nil
}

func (r record) toMember(images *ImageURLs) domain.Member {
	role := r.Role
	if role == "" {
		role = domain.RoleUser
	}
	m := domain.Member{
		ID:             domain.MemberID(r.Idx),
		Name:           r.Name,
		Email:          r.Email,
		Role:           role,
		ProfileImageID: r.ProfileImage,
	}
	if images != nil {
		m.ProfileImageURL = images.URL(r.ProfileImage)
	}
	return m
}

func fromMember(m domain.Member) record {
	return record{
		Idx:          int64(m.ID),
		Name:         m.Name,
		Email:        m.Email,
		Role:         m.Role,
		ProfileImage: m.ProfileImageID,
	}
}
