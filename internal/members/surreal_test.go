package members

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/together/internal/config"
	"github.com/nfrund/together/internal/database"
	"github.com/nfrund/together/internal/domain"
)

func TestSurrealDirectoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}
	url := os.Getenv("TOGETHER_SURREAL_URL")
	if url == "" {
		t.Skip("TOGETHER_SURREAL_URL not set")
	}

	ctx := context.Background()
	conn := database.NewConnection(config.SurrealConfig{
		URL:          url,
		Namespace:    "together",
		Database:     "members_test",
		User:         os.Getenv("TOGETHER_SURREAL_USER"),
		Pass:         os.Getenv("TOGETHER_SURREAL_PASS"),
		QueryTimeout: 5 * time.Second,
	})
	require.NoError(t, conn.Connect(ctx))
	t.Cleanup(func() { _ = conn.Close(ctx) })

	d := NewSurrealDirectory(conn, testImages())
	require.NoError(t, d.Upsert(ctx, domain.Member{ID: 4242, Name: "dora", Role: domain.RoleUser}))

	m, err := d.Lookup(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, "dora", m.Name)
	assert.Equal(t, "/Image/Dabompng.png", m.ProfileImageURL)

	_, err = d.Lookup(ctx, 4243)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
