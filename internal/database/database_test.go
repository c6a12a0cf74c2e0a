package database

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func mustItem(t *testing.T, db *DB, owner *models.User, name string, available bool) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Description: name + " for rent", Available: available, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(context.Background(), item))
	return item
}

func mustBooking(t *testing.T, db *DB, item *models.Item, booker *models.User, start, end time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Start: start, End: end, Status: models.StatusWaiting}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "shareit.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
	assert.Equal(t, config.DriverSQLite, db.Driver())
}

func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shareit.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	mustUser(t, db, "annie")
	require.NoError(t, db.Close())

	db, err = NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	users, err := db.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	logger := zerolog.Nop()
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, &logger)
	assert.Error(t, err)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	assert.NoError(t, db.Ping(context.Background()))
}

func TestDB_InTx(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		err := db.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
			return tx.CreateUser(ctx, &models.User{Name: "commit", Email: "commit@example.com"})
		})
		require.NoError(t, err)

		_, err = db.GetUserByEmail(ctx, "commit@example.com")
		assert.NoError(t, err)
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
			if err := tx.CreateUser(ctx, &models.User{Name: "rollback", Email: "rollback@example.com"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = db.GetUserByEmail(ctx, "rollback@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Nested", func(t *testing.T) {
		err := db.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
			return tx.InTx(ctx, func(ctx context.Context, inner domain.Repository) error {
				return inner.CreateUser(ctx, &models.User{Name: "nested", Email: "nested@example.com"})
			})
		})
		require.NoError(t, err)

		_, err = db.GetUserByEmail(ctx, "nested@example.com")
		assert.NoError(t, err)
	})
}

func TestDB_Rebind(t *testing.T) {
	sqlite := &DB{driver: config.DriverSQLite}
	pg := &DB{driver: config.DriverPostgres}
	q := `SELECT id FROM items WHERE owner_id = ? AND available = ?`

	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, `SELECT id FROM items WHERE owner_id = $1 AND available = $2`, pg.rebind(q))
}

func TestInClause(t *testing.T) {
	in, args := inClause([]int64{3, 5, 8})
	assert.Equal(t, "?, ?, ?", in)
	assert.Equal(t, []any{int64(3), int64(5), int64(8)}, args)
}

func TestDB_ErrorPaths(t *testing.T) {
	db := setupTestDB(t)
	db.Close()
	ctx := context.Background()

	_, err := db.GetUserByID(ctx, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	assert.Error(t, db.CreateItem(ctx, &models.Item{}))
	assert.Error(t, db.CreateSyncTask(ctx, &models.SyncTask{}))
	_, err = db.GetBookingsByOwner(ctx, 1)
	assert.Error(t, err)
	assert.Error(t, db.InTx(ctx, func(context.Context, domain.Repository) error { return nil }))
}
