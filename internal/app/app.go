package app

import (
	"log/slog"

	"github.com/movieparty/core/internal/config"
	http_init "github.com/movieparty/core/internal/delivery/http/init"
	http_room "github.com/movieparty/core/internal/delivery/http/room"
	ws_room "github.com/movieparty/core/internal/delivery/ws/room"
	infra_gemini "github.com/movieparty/core/internal/infra/gemini"
	infra_redis_init "github.com/movieparty/core/internal/infra/redis/init"
	infra_title_cache "github.com/movieparty/core/internal/infra/redis/title_cache"
	infra_tmdb "github.com/movieparty/core/internal/infra/tmdb"
	"github.com/movieparty/core/internal/service/recommender"
	storage_room "github.com/movieparty/core/internal/storage/room"
	usecase_room "github.com/movieparty/core/internal/usecase/room"
)

func Go(cfg *config.Config) {
	logger := slog.Default()

	store := storage_room.New()
	hub := ws_room.NewHub(logger)

	provider := buildProvider(cfg, logger)

	roomUC := usecase_room.New(store, provider, hub,
		usecase_room.WithLogger(logger),
		usecase_room.WithGenerateTimeout(cfg.Recommender.GenerateTimeout),
	)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_room.New(roomUC))
	controllerPool.Add(ws_room.NewController(roomUC, hub))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}

// buildProvider picks the recommendation pipeline from what is
// configured: Gemini with optional TMDB enrichment and optional redis
// cache, or the static catalog when no API key is present.
func buildProvider(cfg *config.Config, logger *slog.Logger) usecase_room.Provider {
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, falling back to static catalog")
		return recommender.NewStatic()
	}

	opts := []recommender.Option{recommender.WithLogger(logger)}

	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY not set, movie enrichment disabled")
	} else {
		tmdbOpts := []infra_tmdb.ClientOption{}
		if cfg.Redis.Host != "" {
			redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
			cache := infra_title_cache.New(redisConn, "title_cache")
			tmdbOpts = append(tmdbOpts, infra_tmdb.WithCache(cache))
		}
		opts = append(opts, recommender.WithEnricher(infra_tmdb.New(cfg.TMDB, tmdbOpts...)))
	}

	return recommender.New(infra_gemini.New(cfg.Gemini), opts...)
}
