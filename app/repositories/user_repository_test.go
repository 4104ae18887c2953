package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/folio/app/models"
	"github.com/shashiranjanraj/folio/app/repositories"
)

const (
	mongoImage            = "mongo:7"
	containerStartTimeout = 120 * time.Second
)

// startMongo runs a throwaway MongoDB and returns a fresh database in it.
func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongoImage,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(containerStartTimeout),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start MongoDB container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate MongoDB container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database(fmt.Sprintf("folio_test_%d", time.Now().UnixNano()))
}

func admin(email string) models.User {
	return models.User{Name: "owner", Email: email, Password: "$2a$10$hash", Role: models.RoleAdmin}
}

func TestUserRepositoryIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()

	t.Run("insert then skip", func(t *testing.T) {
		repo := repositories.NewUserRepository(db.Client().Database(db.Name() + "_seq"))
		require.NoError(t, repo.EnsureIndexes(ctx))

		created, err := repo.InsertAdminIfAbsent(ctx, admin("Owner@Folio.dev "))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.InsertAdminIfAbsent(ctx, admin("other@folio.dev"))
		require.NoError(t, err)
		assert.False(t, created)

		u, err := repo.FindAdmin(ctx)
		require.NoError(t, err)
		assert.Equal(t, "owner@folio.dev", u.Email)
		assert.Equal(t, models.RoleAdmin, u.Role)
		assert.False(t, u.CreatedAt.IsZero())

		_, err = repo.FindByEmail(ctx, "nobody@folio.dev")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("email owned by a regular user", func(t *testing.T) {
		d := db.Client().Database(db.Name() + "_taken")
		repo := repositories.NewUserRepository(d)
		require.NoError(t, repo.EnsureIndexes(ctx))

		_, err := d.Collection(models.UsersCollection).InsertOne(ctx, models.User{
			Name: "visitor", Email: "owner@folio.dev", Role: models.RoleUser,
		})
		require.NoError(t, err)

		_, err = repo.InsertAdminIfAbsent(ctx, admin("owner@folio.dev"))
		assert.ErrorIs(t, err, repositories.ErrEmailTaken)
	})

	t.Run("concurrent bootstraps create one admin", func(t *testing.T) {
		repo := repositories.NewUserRepository(db)
		require.NoError(t, repo.EnsureIndexes(ctx))

		const racers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.InsertAdminIfAbsent(ctx, admin("owner@folio.dev"))
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
		n, err := repo.CountAdmins(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}
