package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/session"
)

// openDirectory connects the commuter directory. Without DATABASE_URL the
// directory lives in memory; either way an empty directory is seeded with
// the synthetic population. The returned close func is never nil.
func openDirectory(ctx context.Context, cfg Config, reg *location.Registry) (commuter.Directory, func() error, error) {
	population := func() []commuter.Profile {
		return commuter.Generate(reg, cfg.DirectorySeed, cfg.DirectoryPerRoute)
	}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory directory")
		return commuter.NewMemoryDirectory(population()...), func() error { return nil }, nil
	}

	db, err := commuter.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot reach the database: %w", err)
	}
	dir := commuter.NewPostgresDirectory(db)
	if err := dir.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	existing, err := dir.All(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if len(existing) == 0 {
		profiles := population()
		if err := dir.SaveAll(ctx, profiles, false); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("seed directory: %w", err)
		}
		log.Info().Int("count", len(profiles)).Msg("Seeded empty commuter directory")
	}
	log.Info().Msg("Database connection established successfully")
	return dir, db.Close, nil
}

// openSessionStore picks Redis when REDIS_ADDR is set, memory otherwise.
func openSessionStore(ctx context.Context, cfg Config) (session.Store, func() error, error) {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStore(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("cannot reach redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Redis session store connected")
	return session.NewRedisStore(client, cfg.SessionTTL), client.Close, nil
}
