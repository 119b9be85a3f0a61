package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prateek-02/ChatterHub/auth"
	"github.com/Prateek-02/ChatterHub/internal"
	"github.com/Prateek-02/ChatterHub/moderation"
	"github.com/Prateek-02/ChatterHub/observability"
	"github.com/Prateek-02/ChatterHub/presence"
	"github.com/Prateek-02/ChatterHub/realtime"
	"github.com/Prateek-02/ChatterHub/repositories"
	"github.com/Prateek-02/ChatterHub/services"

	chathttp "github.com/Prateek-02/ChatterHub/infrastructure/http"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or
// service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// main is a thin wrapper: call run() and translate the outcome into
	// an OS exit code, so every defer runs before the process exits.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	censoredChar, err := censorRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := internal.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Durable store (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search index (Bluge)
	searchIndex, err := repositories.NewSearchIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing search index...")
		_ = searchIndex.Close()
	}()

	// 4. Moderation (optional, driven by the banned-words file)
	var moderator *moderation.Moderator
	if config.CensoredWordsFile != "" {
		words, err := moderation.LoadWords(config.CensoredWordsFile)
		if err != nil {
			return exitConfig, fmt.Errorf("censored words loading failed: %w", err)
		}
		moderator, err = moderation.NewModerator(words, censoredChar)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator init failed: %w", err)
		}
		logger.Info("Moderation enabled", "words", len(words))
	}

	// 5. Repositories, services, realtime core
	userRepo := repositories.NewUserRepository(db)
	messageRepo := repositories.NewMessageRepository(db, logger, config.LimitMessages)

	verifier, err := auth.NewJWTVerifier([]byte(config.JWTSecret), userRepo, config.AuthCacheSize)
	if err != nil {
		return exitConfig, err
	}

	authService := services.NewAuthService(userRepo, []byte(config.JWTSecret), config.AuthTokenDuration)
	chatService := services.NewChatService(messageRepo, userRepo, searchIndex, moderator,
		config.MaxContentLength, logger)
	userService := services.NewUserService(userRepo)

	registry := presence.NewRegistry()
	router := realtime.NewRouter()
	manager := realtime.NewManager(verifier, registry, router, chatService, userRepo,
		config.ConnectionBufferSize, config.SinkTimeout, logger)

	monitor := observability.NewMonitor(logger, func() int {
		return len(registry.DistinctOnlineUsers())
	})

	handler := chathttp.NewRouter(chathttp.RouterDeps{
		Verifier:    verifier,
		AuthService: authService,
		UserService: userService,
		ChatService: chatService,
		Realtime:    manager,
		Monitor:     monitor,
		Log:         logger,
	})

	// 6. HTTP server lifecycle
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("ChatterHub listening", "addr", addr)
	if err := serve(ctx, srv, logger); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// serve runs the HTTP server until the context is cancelled, then shuts
// it down gracefully so in-flight requests and websocket closes finish.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func censorRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
