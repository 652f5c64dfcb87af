package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"wheeltracker/database"
)

const (
	postgresImage    = "postgres:16-alpine"
	terminateTimeout = 30 * time.Second
)

// TestDatabase is a migrated Postgres container with an open pool
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
}

// SetupTestDatabase starts a container, applies every migration and opens a
// pool. Skipped in short mode. The container is terminated when t finishes.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("wheeltracker_test"),
		postgres.WithUsername("wheeltracker"),
		postgres.WithPassword("wheeltracker"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"app":       "wheeltracker",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)

	td := &TestDatabase{Container: container}
	t.Cleanup(func() { td.terminate(t) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrationsWithURL(url))

	td.DB, err = database.NewConnection(ctx, url)
	require.NoError(t, err)
	return td
}

// Truncate empties both tables so subtests can share one container
func (td *TestDatabase) Truncate(t *testing.T) {
	t.Helper()
	_, err := td.DB.Exec(context.Background(), `TRUNCATE round_records, sessions`)
	require.NoError(t, err)
}

func (td *TestDatabase) terminate(t *testing.T) {
	td.DB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()
	if err := td.Container.Terminate(ctx); err != nil {
		t.Logf("failed to terminate postgres container: %v", err)
	}
}
