package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pathfinder-service/internal/app"
	"pathfinder-service/internal/cat"
	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/infra/memory"
	mongostore "pathfinder-service/internal/infra/mongo"
	pgstore "pathfinder-service/internal/infra/postgres"
	pgmigrations "pathfinder-service/internal/infra/postgres/migrations"
	infraredis "pathfinder-service/internal/infra/redis"
)

func TestAdaptiveSessionOverPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewQuestionStore(pool)
	for _, item := range memory.DefaultBank() {
		if _, err := store.Create(ctx, item); err != nil {
			t.Fatalf("seed %s: %v", item.ID, err)
		}
	}
	if _, err := store.Create(ctx, memory.DefaultBank()[0]); !errors.Is(err, domain.ErrItemExists) {
		t.Fatalf("expected ErrItemExists on duplicate, got %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	cache := infraredis.NewItemCache(redisClient, store, 5*time.Minute)
	engine := cat.NewEngine(cache, infraredis.NewSessionStore(redisClient, 5*time.Minute))

	sid, err := engine.StartSession(ctx)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	item, err := engine.NextItem(ctx, sid, domain.BlockCareer)
	if err != nil {
		t.Fatalf("next item: %v", err)
	}
	if item.ID != "c2" || len(item.Options) != 4 {
		t.Fatalf("expected c2 with options, got %+v", item)
	}

	res, err := engine.SubmitResponse(ctx, sid, domain.BlockCareer, item.ID, domain.ResponsePayload{Answer: item.Options[0]})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.UpdatedTheta == 0 {
		t.Fatalf("expected theta to move, got %+v", res)
	}

	scores, err := engine.Finalize(ctx, sid)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if scores[domain.TraitTeamwork] == 0 {
		t.Fatalf("expected teamwork credit, got %+v", scores)
	}

	// Admin writes go through the store and drop the cached block list.
	questions := app.NewQuestionService(store, cache)
	if _, err := questions.Create(ctx, app.QuestionInput{
		ID:         "c0",
		Type:       domain.ItemText,
		Question:   "Describe a project you are proud of and what you learned.",
		Difficulty: 1,
		Block:      domain.BlockCareer,
	}); err != nil {
		t.Fatalf("create question: %v", err)
	}
	items, err := cache.ListItems(ctx, domain.BlockCareer)
	if err != nil {
		t.Fatalf("list cached: %v", err)
	}
	if len(items) != 4 || items[0].ID != "c0" {
		t.Fatalf("expected c0 first after invalidation, got %+v", items)
	}
	if items[0].Options != nil {
		t.Fatalf("expected text item without options, got %v", items[0].Options)
	}

	if err := questions.Delete(ctx, "c0"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "c0"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMongoQuestionStore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startMongo(t, ctx)
	defer cleanup()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	store := mongostore.NewQuestionStore(client, "pathfinder_test")
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	for _, item := range memory.DefaultBank() {
		if _, err := store.Create(ctx, item); err != nil {
			t.Fatalf("seed %s: %v", item.ID, err)
		}
	}
	if _, err := store.Create(ctx, memory.DefaultBank()[0]); !errors.Is(err, domain.ErrItemExists) {
		t.Fatalf("expected ErrItemExists on duplicate, got %v", err)
	}

	academic, err := store.ListItems(ctx, domain.BlockAcademic)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := make([]string, len(academic))
	for i, item := range academic {
		ids[i] = item.ID
	}
	if strings.Join(ids, ",") != "a1,a2,a3" {
		t.Fatalf("expected academic items by difficulty, got %v", ids)
	}

	updated := academic[0]
	updated.Difficulty = 9
	if _, err := store.Update(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Difficulty != 9 || got.Options[0] != academic[0].Options[0] {
		t.Fatalf("unexpected item after update: %+v", got)
	}

	if err := store.Delete(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "a1"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	missing := domain.Item{ID: "zz", Type: domain.ItemText, Prompt: "x", Difficulty: 1, Block: domain.BlockCareer}
	if _, err := store.Update(ctx, missing); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound on update, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "pathfinder", "POSTGRES_PASSWORD": "pathfinderpass", "POSTGRES_DB": "pathfinder"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	host, port, terminate := startContainer(t, ctx, req, "5432/tcp")
	dsn := fmt.Sprintf("postgres://pathfinder:pathfinderpass@%s:%s/pathfinder?sslmode=disable", host, port)
	return dsn, terminate
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	host, port, terminate := startContainer(t, ctx, req, "6379/tcp")
	return fmt.Sprintf("redis://%s:%s", host, port), terminate
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}
	host, port, terminate := startContainer(t, ctx, req, "27017/tcp")
	return fmt.Sprintf("mongodb://%s:%s", host, port), terminate
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, exposed string) (string, string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	port, err := container.MappedPort(ctx, nat.Port(exposed))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return host, port.Port(), func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
