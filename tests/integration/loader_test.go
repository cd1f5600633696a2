//go:build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/pioneers/internal/testutil"
	"github.com/Sternrassler/pioneers/pkg/cache"
	"github.com/Sternrassler/pioneers/pkg/client"
	"github.com/Sternrassler/pioneers/pkg/enrich"
	"github.com/Sternrassler/pioneers/pkg/pagination"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/Sternrassler/pioneers/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start Redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		_ = redisClient.Close()
		_ = container.Terminate(ctx)
	})

	return redisClient
}

// setupStore opens a file-backed SQLite store seeded with P01..Pn.
func setupStore(t *testing.T, n int) *store.Store {
	t.Helper()

	db, err := store.Open(store.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "pioneers.sqlite")})
	require.NoError(t, err)

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	t.Cleanup(func() { _ = st.Close() })

	rows := make([]pioneer.Pioneer, 0, n)
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("P%02d", i)
		rows = append(rows, pioneer.Pioneer{
			ID:            int64(i),
			Name:          name,
			ImageFile:     name + ".jpg",
			WikipediaLink: "https://en.wikipedia.org/wiki/" + name,
		})
	}
	require.NoError(t, st.AddPioneers(context.Background(), rows))
	return st
}

// setupWiki returns a mock Wikimedia server knowing P01..Pn and a client
// pointed at it.
func setupWiki(t *testing.T, n int) (*testutil.MockWiki, *client.Client) {
	t.Helper()

	mock := testutil.NewMockWiki()
	t.Cleanup(mock.Close)

	mock.AddLabel("Q1", "computer science")
	mock.AddLabel("Q2", "Analytical Engine notes")
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("P%02d", i)
		entity := fmt.Sprintf("Q%d", 1000+i)
		mock.AddArticle(name, testutil.MockArticle{Extract: name + " pioneered something.", EntityID: entity})
		mock.AddClaims(entity, enrich.PropertyFieldOfWork, "Q1")
		mock.AddClaims(entity, enrich.PropertyNotableWork, "Q2", "Q404")
		mock.AddImage(name+".jpg", "https://upload.wikimedia.org/"+name+".jpg")
	}

	cfg := client.DefaultConfig("pioneers-integration/0.1")
	cfg.WikipediaURL = mock.WikipediaURL()
	cfg.WikidataURL = mock.WikidataURL()
	cfg.MaxRetries = 1
	cfg.InitialBackoff = 10 * time.Millisecond

	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return mock, c
}

func names(items []pioneer.EnrichedPioneer) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestLoader_HomePageAndLoadMore(t *testing.T) {
	rdb := setupRedis(t)
	st := setupStore(t, 12)
	mock, wiki := setupWiki(t, 12)
	mock.Fail("P05", testutil.NewServerErrorResponse())

	loader := pagination.NewLoader(st, enrich.New(wiki), cache.NewManager(rdb), pagination.DefaultConfig())
	ctx := context.Background()

	home, err := loader.Load(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{"P01", "P02", "P03", "P04", "P06", "P07", "P08", "P09", "P10"}, names(home))

	ada := home[0]
	assert.Equal(t, "P01 pioneered something.", ada.Description)
	assert.Equal(t, []string{"computer science"}, ada.FieldOfWork)
	assert.Equal(t, []string{"Analytical Engine notes"}, ada.NotableWorks, "unresolvable labels are dropped")
	assert.Equal(t, "https://upload.wikimedia.org/P01.jpg", ada.ImageURL)

	ttl, err := rdb.TTL(ctx, "pioneers:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 290*time.Second)
	assert.LessOrEqual(t, ttl, 300*time.Second)

	requests := mock.GetRequestCount()
	cached, err := loader.Load(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, home, cached)
	assert.Equal(t, requests, mock.GetRequestCount(), "cache hit must not call Wikimedia")

	more, err := loader.Load(ctx, pagination.Params{LastID: &home[len(home)-1].ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"P11", "P12"}, names(more))

	last := more[len(more)-1].ID
	end, err := loader.Load(ctx, pagination.Params{LastID: &last})
	require.NoError(t, err)
	assert.Empty(t, end)

	keys, err := rdb.Keys(ctx, "pioneers:*").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"pioneers:1"}, keys, "cursor pages are not cached")
}

func TestLoader_PageNumbers(t *testing.T) {
	rdb := setupRedis(t)
	st := setupStore(t, 12)
	_, wiki := setupWiki(t, 12)

	loader := pagination.NewLoader(st, enrich.New(wiki), cache.NewManager(rdb), pagination.DefaultConfig())
	ctx := context.Background()

	page := 2
	second, err := loader.Load(ctx, pagination.Params{Page: &page})
	require.NoError(t, err)
	assert.Equal(t, []string{"P11", "P12"}, names(second))

	page = 3
	third, err := loader.Load(ctx, pagination.Params{Page: &page})
	require.NoError(t, err)
	assert.Empty(t, third)

	exists, err := rdb.Exists(ctx, "pioneers:3").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestLoader_CacheOutage(t *testing.T) {
	rdb := setupRedis(t)
	st := setupStore(t, 12)
	_, wiki := setupWiki(t, 12)

	// A closed client fails every command, like an unreachable server.
	broken := redis.NewClient(&redis.Options{Addr: rdb.Options().Addr})
	require.NoError(t, broken.Close())

	loader := pagination.NewLoader(st, enrich.New(wiki), cache.NewManager(broken), pagination.DefaultConfig())

	items, err := loader.Load(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestLoader_StoreOutage(t *testing.T) {
	rdb := setupRedis(t)
	st := setupStore(t, 12)
	_, wiki := setupWiki(t, 12)
	require.NoError(t, st.Close())

	loader := pagination.NewLoader(st, enrich.New(wiki), cache.NewManager(rdb), pagination.DefaultConfig())

	_, err := loader.Load(context.Background(), pagination.Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pagination.ErrLoadFailed)
	assert.ErrorIs(t, err, store.ErrStoreFailure)
}
