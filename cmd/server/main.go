package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gradetrack/internal/admin"
	"gradetrack/internal/course"
	"gradetrack/internal/courseeval"
	"gradetrack/internal/grade"
	"gradetrack/internal/gradesys"
	"gradetrack/internal/logging"
	"gradetrack/internal/server"
	"gradetrack/internal/shared"
	"gradetrack/internal/user"
)

func main() {
	// 1. Configuration
	if err := shared.LoadEnv(".env"); err != nil {
		log.Printf("INFO: no .env file loaded: %v", err)
	}
	cfg, err := shared.LoadServiceConfig("gradetrack")
	if err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	// 2. Logging
	logs, err := logging.Init(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("FATAL: logger init failed: %v", err)
	}
	defer logs.Closer()
	zap.ReplaceGlobals(logs.Base)
	logger := logs.Sugar
	logger.Infow("starting", "service", cfg.ServiceName, "env", cfg.Environment)

	// 3. Database
	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		logger.Fatalw("mongodb connection failed", "err", err)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			logger.Errorw("mongodb disconnect failed", "err", err)
		}
	}()

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := shared.EnsureIndexes(startupCtx, db); err != nil {
		logger.Fatalw("index creation failed", "err", err)
	}

	// 4. Services
	gradeSvc := grade.NewService(db, logger)
	svc := &server.Services{
		Users:   user.NewService(db, cfg, logger),
		Systems: gradesys.NewService(db, logger),
		Grades:  gradeSvc,
		Courses: course.NewService(db, gradeSvc, logger),
		Evals:   courseeval.NewService(db, logger),
		Admin:   admin.NewService(db, logger),
	}
	if err := svc.Users.EnsureAdmin(startupCtx); err != nil {
		logger.Fatalw("admin account setup failed", "err", err)
	}

	// 5. HTTP Server
	router := server.SetupRoutes(cfg, svc)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infow("listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("http server error", "err", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown error", "err", err)
	}
	logger.Info("stopped")
}
