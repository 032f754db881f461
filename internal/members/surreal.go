package members

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/together/internal/database"
	"github.com/nfrund/together/internal/domain"
)

const selectMember = "SELECT idx, name, email, role, profileImage FROM member WHERE idx = $idx"

// SurrealDirectory serves members from the SurrealDB member table.
type SurrealDirectory struct {
	conn    *database.Connection
	images  *ImageURLs
	timeout time.Duration
}

// NewSurrealDirectory creates a directory over an established connection.
func NewSurrealDirectory(conn *database.Connection, images *ImageURLs) *SurrealDirectory {
	return &SurrealDirectory{
		conn:    conn,
		images:  images,
		timeout: conn.QueryTimeout(),
	}
}

// Lookup implements together.MemberLookup.
func (d *SurrealDirectory) Lookup(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var rec *record
	err := d.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = database.QueryOne[record](ctx, db, selectMember, map[string]any{"idx": int64(id)})
		return err
	})
	if err != nil {
		return domain.Member{}, fmt.Errorf("lookup member %s: %w", id, err)
	}
	if rec == nil {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, domain.ErrMemberNotFound)
	}
	return rec.toMember(d.images), nil
}

// Upsert writes m to the member table.
func (d *SurrealDirectory) Upsert(ctx context.Context, m domain.Member) error {
	rec := fromMember(m)
	if err := rec.validate(); err != nil {
		return err
	}
	return d.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		return database.Execute(ctx, db,
			"UPSERT type::thing('member', $idx) SET idx = $idx, name = $name, email = $email, role = $role, profileImage = $profileImage",
			map[string]any{
				"idx":          rec.Idx,
				"name":         rec.Name,
				"email":        rec.Email,
				"role":         rec.Role,
				"profileImage": rec.ProfileImage,
			})
	})
}
