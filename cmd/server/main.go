package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-sale/internal/adapter/handler"
	"github.com/rl1809/inventory-sale/internal/adapter/render"
	"github.com/rl1809/inventory-sale/internal/adapter/storage"
	"github.com/rl1809/inventory-sale/internal/config"
	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/core/service"
	"github.com/rl1809/inventory-sale/internal/logger"
	"github.com/rl1809/inventory-sale/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping mysql", zap.Error(err))
	}
	log.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	log.Info("connected to redis")

	// Adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure schema", zap.Error(err))
	}
	redisAdapter := storage.NewRedisAdapter(rdb)

	// Engine
	validator := service.NewSaleValidator(mysqlAdapter)
	mutator := service.NewStockMutator(mysqlAdapter)
	allocator := service.NewReceiptAllocator(mysqlAdapter, service.AllocatorConfig{
		MaxAttempts:    cfg.Engine.AllocMaxAttempts,
		InitialBackoff: cfg.Engine.InitialBackoff,
		MaxBackoff:     cfg.Engine.MaxBackoff,
	})
	engine := service.NewSaleTransactionEngine(validator, mutator, allocator,
		mysqlAdapter, redisAdapter, log, service.EngineConfig{
			MaxAttempts:    cfg.Engine.MaxAttempts,
			InitialBackoff: cfg.Engine.InitialBackoff,
			MaxBackoff:     cfg.Engine.MaxBackoff,
			QueueSize:      cfg.Engine.QueueSize,
		})

	// Render workers
	if err := os.MkdirAll(cfg.Render.OutputDir, 0o755); err != nil {
		log.Fatal("failed to create render output dir", zap.Error(err))
	}
	renderer := render.NewTextRenderer()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Render.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			renderLoop(id, engine.Committed(), renderer, cfg.Render.OutputDir, log)
		}(i)
	}
	log.Info("started render workers", zap.Int("count", cfg.Render.Workers))

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	httpHandler := handler.NewHTTPHandler(engine, mysqlAdapter, log)
	httpHandler.Register(router)

	httpServer := &http.Server{
		Addr:    cfg.App.Port,
		Handler: router,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.App.Port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	engine.Close()
	wg.Wait()
	log.Info("render workers stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}

func renderLoop(id int, queue <-chan domain.Receipt, renderer port.ReceiptRenderer, dir string, log *zap.Logger) {
	for receipt := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		artifact, err := renderer.Render(ctx, &receipt)
		if err != nil {
			log.Error("failed to render receipt",
				zap.Int("worker", id), zap.Int64("number", receipt.Number), zap.Error(err))
			cancel()
			continue
		}

		path := filepath.Join(dir, render.FileName(&receipt))
		if err := os.WriteFile(path, artifact, 0o644); err != nil {
			log.Error("failed to write receipt artifact",
				zap.Int("worker", id), zap.String("path", path), zap.Error(err))
		} else {
			log.Debug("wrote receipt artifact", zap.Int("worker", id), zap.String("path", path))
		}

		cancel()
	}
}
