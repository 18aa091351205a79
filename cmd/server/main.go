// Package main is the entry point for the knowledge-hub server.
//
// The main package stays minimal — its job is to:
// 1. Read configuration (env vars)
// 2. Create dependencies (logger, reasoning engine)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.). This separation keeps the app testable and its
// components reusable.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/knowledge-hub/internal/engine"
	"github.com/sakif/knowledge-hub/internal/engine/openai"
	"github.com/sakif/knowledge-hub/internal/handler"
	"github.com/sakif/knowledge-hub/internal/server"
)

func main() {
	// === 1. LOGGING ===
	// Structured text logs to stdout. In production you'd raise the level
	// to Info or Warn to cut noise.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. CONFIGURATION ===
	// Env vars with defaults. A config library would be overkill for a
	// dozen scalar settings — env vars are simple and standard.
	port := 8081
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// DATA_PATH is the durable store: a JSON document by default, or a
	// SQLite database when STORAGE_BACKEND=sqlite.
	backend := os.Getenv("STORAGE_BACKEND")
	dataPath := "data/knowledge.json"
	if backend == "sqlite" {
		dataPath = "data/knowledge.db"
	}
	if envPath := os.Getenv("DATA_PATH"); envPath != "" {
		dataPath = envPath
	}

	// Ensure the data directory exists (like `mkdir -p`).
	dataDir := filepath.Dir(dataPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Error("failed to create data directory",
			slog.String("dir", dataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 3. REASONING ENGINE ===
	// The engine is optional — without credentials the server still serves
	// the knowledge API, it just can't chat.
	var eng engine.Engine
	engineCfg := openai.DefaultConfig()
	engineCfg.APIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		engineCfg.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		engineCfg.Model = v
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 32)
		if err != nil {
			logger.Error("invalid OPENAI_TEMPERATURE value", slog.String("value", v))
			os.Exit(1)
		}
		engineCfg.Temperature = float32(temp)
	}
	if v := os.Getenv("SYSTEM_PROMPT"); v != "" {
		engineCfg.SystemPrompt = v
	}

	if engineCfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set — chat gateway is disabled")
	} else {
		client, err := openai.New(engineCfg, logger)
		if err != nil {
			logger.Error("failed to create reasoning engine", slog.String("error", err.Error()))
			os.Exit(1)
		}
		eng = client
	}

	// === 4. AUTH ===
	// JWT_SECRET enables bearer-token auth on mutating routes. Unset means
	// an open API, which is the right default for a local deployment.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Warn("JWT_SECRET not set — mutating routes are unauthenticated")
	}

	// === 5. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:              port,
		StorageBackend:    backend,
		DataPath:          dataPath,
		AllowEmptyContent: os.Getenv("ALLOW_EMPTY_CONTENT") == "true",
		JWTSecret:         jwtSecret,
		Chat: handler.ChatConfig{
			Streaming:        os.Getenv("CHAT_STREAMING") != "false",
			KnowledgeContext: os.Getenv("CHAT_KNOWLEDGE_CONTEXT") != "false",
		},
	}

	srv, err := server.New(cfg, eng, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
