// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/efchatnet/efchat/backend/chat"
	"github.com/efchatnet/efchat/backend/handlers"
	"github.com/efchatnet/efchat/backend/middleware"
	"github.com/efchatnet/efchat/backend/storage"
	"github.com/efchatnet/efchat/backend/storage/postgres"
	"github.com/efchatnet/efchat/backend/storage/redis"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := chat.DefaultConfig()
	cfg.Enabled = envBool("CHAT_ENABLED", true)
	if d := envDuration("CHAT_IDLE_TIMEOUT"); d > 0 {
		cfg.IdleTimeout = d
	}
	if d := envDuration("CHAT_SWEEP_INTERVAL"); d > 0 {
		cfg.SweepInterval = d
	}
	if n := envInt("CHAT_MAX_MESSAGES"); n > 0 {
		cfg.DefaultMaxMessages = n
	}

	// The audit event log is optional; without a database chat runs fine,
	// administration actions are just not recorded.
	var events storage.EventLog
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store := postgres.NewStore(db)
		if err := store.Migrate(); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		events = store
	} else {
		logger.Warn("DATABASE_URL not set, audit events will not be recorded")
	}

	// With Redis the flood windows hold across instances; without it each
	// instance counts on its own.
	var flood chat.FloodGuard
	if redisAddr := os.Getenv("REDIS_URL"); redisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		flood = chat.NewStoreFloodGuard(redis.NewFloodStore(rdb), chat.DefaultFloodLimits())
	} else {
		logger.Warn("REDIS_URL not set, flood limits are per-instance")
		flood = chat.NewMemoryFloodGuard(chat.DefaultFloodLimits())
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "efchat"
	}
	tokens := middleware.NewTokens(jwtSecret, jwtIssuer, envDuration("JWT_TTL"))

	state := chat.NewSiteState(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	state.StartSweeper(ctx)

	svc := chat.NewService(state, flood, events, logger)
	supportSvc := chat.NewSupportService(svc)

	chatHandler := handlers.NewChatHandler(svc, tokens, logger)
	supportHandler := handlers.NewSupportHandler(supportSvc, logger)

	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.NewAuthMiddleware(tokens))
	handlers.RegisterRoutes(r, chatHandler, supportHandler)
	r.HandleFunc("/health", handlers.Health).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	logger.Info("chat server starting", "port", port, "issuer", jwtIssuer, "enabled", cfg.Enabled)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(name string) int {
	n, _ := strconv.Atoi(os.Getenv(name))
	return n
}

func envDuration(name string) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(name))
	return d
}
