// Package testutil provides an in-memory store and seed helpers for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paseoapp/walk-api/internal/config"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository/postgres"
)

// NewStore opens a migrated in-memory sqlite store closed at test cleanup.
func NewStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	db, err := postgres.NewDB(ctx, config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db))
	return postgres.NewStore(db)
}

func createUser(t *testing.T, store *postgres.Store, role model.Role, name string) *model.User {
	t.Helper()
	u := &model.User{
		ID:     uuid.New(),
		Name:   name,
		Email:  name + "@paseo.test",
		Phone:  "+56911111111",
		RoleID: role,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func CreateAdmin(t *testing.T, store *postgres.Store) *model.User {
	t.Helper()
	return createUser(t, store, model.RoleAdmin, "admin-"+uuid.NewString()[:8])
}

func CreateClient(t *testing.T, store *postgres.Store) *model.User {
	t.Helper()
	return createUser(t, store, model.RoleClient, "client-"+uuid.NewString()[:8])
}

// CreateWalker seeds a walker with a profile holding balance in zone.
func CreateWalker(t *testing.T, store *postgres.Store, balance int64, zone string) *model.User {
	t.Helper()
	u := createUser(t, store, model.RoleWalker, "walker-"+uuid.NewString()[:8])
	now := time.Now().UTC()
	require.NoError(t, store.WalkerProfiles().Create(context.Background(), &model.WalkerProfile{
		UserID:    u.ID,
		Balance:   balance,
		Zone:      zone,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return u
}

// CreateWalkerWithoutProfile seeds a walker user that has no walker profile.
func CreateWalkerWithoutProfile(t *testing.T, store *postgres.Store) *model.User {
	t.Helper()
	return createUser(t, store, model.RoleWalker, "walker-"+uuid.NewString()[:8])
}

func CreatePet(t *testing.T, store *postgres.Store, ownerID uuid.UUID, zone string) *model.Pet {
	t.Helper()
	p := &model.Pet{ID: uuid.New(), OwnerID: ownerID, Name: "firulais", Zone: zone}
	require.NoError(t, store.Pets().Create(context.Background(), p))
	return p
}

// Clock is a settable clock for services that take a now func.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Santiago loads America/Santiago or fails the test.
func Santiago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	return loc
}
