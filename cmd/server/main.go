package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/confessit/confessit/internal/auth"
	"github.com/confessit/confessit/internal/config"
	"github.com/confessit/confessit/internal/db"
	routes "github.com/confessit/confessit/internal/http"
	"github.com/confessit/confessit/internal/logging"
	"github.com/confessit/confessit/internal/models"
	"github.com/confessit/confessit/internal/ws"
)

func main() {
	// load .env before anything reads the environment; in production
	// the vars are set directly and the file is absent
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, reading from environment")
	}
	config.Load()
	logging.Setup("confessit")

	database, err := db.Init()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	log.Info("running database migrations")
	if err := database.AutoMigrate(
		&models.Admin{},
		&models.Confession{},
		&models.ConfessionForm{},
		&models.FormResponse{},
	); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("migrations complete")

	secret := viper.GetString(config.EnvSessionSecret)
	if secret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}
	authMgr := auth.NewManager(database, []byte(secret))

	hub := ws.NewHub()
	go hub.Run()

	router := gin.New()
	routes.SetupRoutes(router, database, authMgr, hub)

	port := viper.GetString(config.EnvPort)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server exiting")
}
