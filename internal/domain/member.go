package domain

import (
	"strconv"
)

// MemberID identifies a member account.
type MemberID int64

// String renders the id the way it travels in pubsub metadata and JWT claims.
func (id MemberID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseMemberID parses the decimal form produced by MemberID.String.
func ParseMemberID(s string) (MemberID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return MemberID(n), nil
}

// Member is the subset of an account the session layer needs for display.
type Member struct {
	ID              MemberID `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Role            string   `json:"role,omitempty"`
	ProfileImageID  string   `json:"profileImageId,omitempty"`
	ProfileImageURL string   `json:"profileImageUrl,omitempty"`
}

// Roles carried in access tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
