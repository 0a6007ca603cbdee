package main

import (
	"flag"
	"net/http"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/reasonchat/reasonchat/internal/api"
	"github.com/reasonchat/reasonchat/internal/chat"
	"github.com/reasonchat/reasonchat/internal/config"
	"github.com/reasonchat/reasonchat/internal/db"
	"github.com/reasonchat/reasonchat/internal/deepseek"
	"github.com/reasonchat/reasonchat/internal/logging"
	"github.com/reasonchat/reasonchat/internal/title"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		addr       = flag.String("addr", "", "bind address (overrides config)")
		port       = flag.Int("port", 0, "listening port (overrides config and PORT)")
		dbPath     = flag.String("db", "", "sqlite DSN for the conversation store (overrides config)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := logging.New(*debug)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if *addr != "" {
		cfg.BindAddr = *addr
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	cfg.Debug = cfg.Debug || *debug
	if cfg.Debug && !*debug {
		logger = logging.New(true)
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize conversation store",
			zap.Error(err),
			zap.String("dbPath", cfg.DBPath))
	}

	client := deepseek.New(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.RequestTimeout)

	titler, err := title.New(cfg.BaseURL, cfg.APIKey, cfg.TitleModel)
	if err != nil {
		logger.Fatal("failed to initialize title generator", zap.Error(err))
	}

	chatService := chat.New(client, titler, database, logger, cfg.RequestTimeout)
	handler := api.NewHandler(database, chatService, logger)

	http.HandleFunc("/api/message", handler.HandleMessage)
	http.HandleFunc("/api/conversations", handler.GetConversations)
	http.HandleFunc("/api/messages", handler.GetMessages)
	http.HandleFunc("/api/conversations/delete", handler.DeleteConversation)
	http.HandleFunc("/api/conversations/update", handler.UpdateConversation)
	http.HandleFunc("/healthz", handler.Health)

	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	logger.Info("starting server",
		zap.String("listen", cfg.ListenAddr()),
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL))

	serveErr := http.ListenAndServe(cfg.ListenAddr(), nil)
	err = multierr.Combine(serveErr, database.Close())
	logger.Fatal("server stopped", zap.Error(err))
}
