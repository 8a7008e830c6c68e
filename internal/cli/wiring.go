package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/auth"
	"exceltoquiz/internal/backend"
	"exceltoquiz/internal/config"
	"exceltoquiz/internal/infra/memory"
	"exceltoquiz/internal/infra/postgres"
	redisinfra "exceltoquiz/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// deps is everything a command may need, built from one config file.
type deps struct {
	cfg      config.Config
	provider *auth.Provider
	client   *backend.Client
	quizzes  quizCache
}

// quizCache is a cached quiz source that authoring can evict from.
type quizCache interface {
	app.QuizRepository
	app.QuizCache
}

func loadDeps(configPath string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	provider := auth.NewProvider(auth.NewFileStore(cfg.Auth.SessionPath))
	httpClient := &http.Client{Timeout: config.TTLDuration(cfg.Backend.Timeout, 30*time.Second)}
	return &deps{
		cfg:      cfg,
		provider: provider,
		client:   backend.NewClient(cfg.BackendConfig(), httpClient, provider),
	}, nil
}

// stores holds the optional Redis and Postgres connections.
type stores struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	s := &stores{}
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.pool = pool
	}
	return s, nil
}

func (s *stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// sharedQuizzes returns the one quiz cache shared by taking and authoring.
func (d *deps) sharedQuizzes(s *stores) quizCache {
	if d.quizzes != nil {
		return d.quizzes
	}
	loader := memory.LoaderFunc(d.client.GetQuiz)
	ttl := config.TTLDuration(d.cfg.Quiz.TTL, 10*time.Minute)
	if s.redis != nil {
		d.quizzes = redisinfra.NewQuizRepository(s.redis, loader, ttl)
	} else {
		d.quizzes = memory.NewQuizRepository(loader, ttl)
	}
	return d.quizzes
}

// takeService builds the quiz-taking service over the configured caches.
func (d *deps) takeService(s *stores, tick time.Duration) *app.TakeService {
	sessionTTL := config.TTLDuration(d.cfg.Session.TTL, config.TTLDuration(d.cfg.Redis.TTL, 2*time.Hour))

	var sessions app.SessionRepository
	if s.redis != nil {
		sessions = redisinfra.NewSessionStore(s.redis, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	opts := []app.TakeOption{app.WithTickInterval(tick)}
	if s.pool != nil {
		opts = append(opts, app.WithJournal(postgres.NewResultJournal(s.pool)))
	}
	return app.NewTakeService(d.sharedQuizzes(s), sessions, d.client, opts...)
}

func (d *deps) authorService(s *stores) *app.AuthorService {
	cache := app.WithQuizCache(d.sharedQuizzes(s))
	if s.pool != nil {
		return app.NewAuthorService(d.client, postgres.NewDraftStore(s.pool), cache)
	}
	return app.NewAuthorService(d.client, nil, cache)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
