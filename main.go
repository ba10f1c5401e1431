package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/AyanMustafa/Anevo/internal/auth"
	"github.com/AyanMustafa/Anevo/internal/config"
	"github.com/AyanMustafa/Anevo/internal/database"
	"github.com/AyanMustafa/Anevo/internal/notes"
	"github.com/AyanMustafa/Anevo/internal/notify"
	"github.com/AyanMustafa/Anevo/internal/store"
	"github.com/AyanMustafa/Anevo/internal/token"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db := database.NewManager()
	if err := db.Connect(cfg.DatabaseURL); err != nil {
		logger.Error("error connecting to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	users := store.NewUserStore(db.DB)
	noteStore := store.NewNoteStore(db.DB)
	shares := store.NewShareStore(db.DB, noteStore, users)
	tokens := token.NewService(cfg.JWTKey)

	hub := notify.NewHub(logger, notify.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	defer hub.Close()

	authHandler := auth.NewHandler(users, tokens, auth.NewGoogleVerifier(cfg.GoogleClientID), logger)
	noteHandler := notes.NewHandler(noteStore, shares, users, hub, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(auth.RequestLogger(logger))
	r.Use(auth.CORSMiddleware(cfg.AllowedOrigins))

	prometheus := ginprometheus.NewWithConfig(ginprometheus.Config{Subsystem: "gin"})
	prometheus.Use(r)

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.POST("/auth/google", authHandler.GoogleLogin)
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	protected := r.Group("/")
	protected.Use(auth.Middleware(tokens, users))
	protected.GET("/notes", noteHandler.List)
	protected.POST("/notes", noteHandler.Create)
	protected.GET("/notes/:id", noteHandler.Get)
	protected.PUT("/notes/:id", noteHandler.Update)
	protected.DELETE("/notes/:id", noteHandler.Delete)
	protected.POST("/notes/:id/share", noteHandler.Share)
	protected.DELETE("/notes/:id/share/:username", noteHandler.Unshare)
	protected.GET("/notes/:id/shares", noteHandler.ListGrants)
	protected.GET("/ws", hub.ServeWS)

	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Error("error starting server", "error", err)
		os.Exit(1)
	}
}
