package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Shelfwave/cache"
	"Shelfwave/config"
	"Shelfwave/core/auth"
	"Shelfwave/core/effects"
	"Shelfwave/core/library"
	"Shelfwave/core/player"
	"Shelfwave/core/session"
	"Shelfwave/core/transport"
	"Shelfwave/db"
	"Shelfwave/logger"
	"Shelfwave/repository"
	"Shelfwave/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: "logs/shelfwave.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.InitJWT(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)

	if err := storage.InitMinio(); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ensureDirExists(cfg.MediaDir)
	ensureDirExists(cfg.CoverDir)

	libraryRepo := repository.NewMySQLLibraryRepository()
	profileRepo := repository.NewGormProfileRepository(db.GormDB)
	settingsStore := cache.NewRedisSettingsStore(db.RedisClient)
	queueStore := cache.NewRedisQueueStore(db.RedisClient)

	// Shared player plumbing: one effects chain bound to the shared
	// engine's audio session, one ref-counted handle over both.
	chain := effects.NewChain(effects.DefaultConstructors())
	handle := player.NewHandle(func() player.Engine {
		return player.NewClockEngine()
	}, chain, effects.DefaultSettings())

	sessions := session.NewManager(libraryRepo, settingsStore, queueStore, handle, func() player.Engine {
		return player.NewClockEngine()
	})

	hub := transport.NewHub()
	go hub.Run()

	remote := transport.NewService(handle, hub, sessions)
	remote.Start()

	watcher, err := library.NewWatcher(libraryRepo, cfg.MediaDir)
	if err != nil {
		logger.Warn("media watcher unavailable", logger.ErrorField(err))
	} else {
		defer watcher.Close()
	}

	apiHandler := NewAPIHandler(libraryRepo, profileRepo, sessions, remote, hub, handle, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth endpoints
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Library endpoints
	router.HandleFunc("/api/library", apiHandler.AuthMiddleware(apiHandler.GetLibraryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/library", apiHandler.AuthMiddleware(apiHandler.CreateItemHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/library/{id}", apiHandler.AuthMiddleware(apiHandler.GetItemHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/covers", apiHandler.AuthMiddleware(apiHandler.UploadCoverHandler)).Methods(http.MethodPost)
	router.PathPrefix("/api/covers/").HandlerFunc(apiHandler.CoverURLHandler).Methods(http.MethodGet)

	// Session endpoints
	router.HandleFunc("/api/session/music", apiHandler.AuthMiddleware(apiHandler.SelectMusicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/audiobook", apiHandler.AuthMiddleware(apiHandler.SelectAudiobookHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/now-playing", apiHandler.AuthMiddleware(apiHandler.NowPlayingHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/session/background", apiHandler.AuthMiddleware(apiHandler.BackgroundHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/session/shuffle", apiHandler.AuthMiddleware(apiHandler.ShuffleHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/session/repeat", apiHandler.AuthMiddleware(apiHandler.RepeatHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/session/audio-settings", apiHandler.AuthMiddleware(apiHandler.GetAudioSettingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/session/audio-settings", apiHandler.AuthMiddleware(apiHandler.UpdateAudioSettingsHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/session/{kind}", apiHandler.AuthMiddleware(apiHandler.DismissHandler)).Methods(http.MethodDelete)

	// Transport endpoints
	router.HandleFunc("/api/transport/{command}", apiHandler.AuthMiddleware(apiHandler.TransportCommandHandler)).Methods(http.MethodPost)
	router.HandleFunc("/ws/transport", apiHandler.AuthMiddleware(apiHandler.TransportWSHandler)).Methods(http.MethodGet)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	// Final checkpoints before the engines go away.
	remote.Stop()
	sessions.CloseAll()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
