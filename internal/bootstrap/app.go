package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "prize-wheel/internal/handler/http"
	wsHandler "prize-wheel/internal/handler/websocket"
	"prize-wheel/internal/hub"
	gormpersistence "prize-wheel/internal/infra/persistence/gorm"
	"prize-wheel/internal/infra/setup"
	redisstate "prize-wheel/internal/infra/state/redis"
	"prize-wheel/internal/service"
	"prize-wheel/internal/tasks"
	"prize-wheel/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Scheduler   *asynq.Scheduler
	Hub         *hub.Hub
	Spins       *service.SpinService
	HttpServer  *http.Server
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 配置与 logger
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := NewLogger(cfg)
	// 各包通过 logrus 包级 logger 记录日志，保持同一配置
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)
	log.Infof("Logger initialized (Level: %s, Env: %s)", log.Level, cfg.AppEnv)

	// 2. 基础设施
	db, err := setup.InitDB(setup.DBOptions{
		Driver:   cfg.DBDriver,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	if cfg.SeedDemo {
		if err := setup.SeedDemo(db); err != nil {
			return nil, fmt.Errorf("failed to seed demo wheel: %w", err)
		}
		log.Info("Demo wheel seeded")
	}
	if err := setup.EnsureAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to ensure admin account: %w", err)
	}

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Redis and Asynq clients initialized")

	// 3. Repositories
	store := gormpersistence.NewGormInventoryStore(db)
	winRepo := gormpersistence.NewGormWinRecordRepository(db)
	adminRepo := gormpersistence.NewGormAdminRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)

	// 4. Services
	authService, err := service.NewAuthService(adminRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	wheelService := service.NewWheelService(store)
	winService := service.NewWinRecordService(winRepo)
	spinService := service.NewSpinService(store,
		service.WithMaxAttempts(cfg.SpinMaxAttempts),
		service.WithNotifier(worker.NewAsynqWinNotifier(asynqClient)),
	)

	// 5. Hub
	hubInstance := hub.NewHub(spinService, wheelService, hub.Options{
		Limiter:        stateRepo,
		SpinRateLimit:  cfg.SpinRateLimit,
		SpinRateWindow: cfg.SpinRateWindow,
	})

	// 6. Worker
	workerServer := worker.NewWorkerServer(
		redisClientOpt,
		worker.NewWinRecordedHandler(winRepo, stateRepo),
		worker.NewInventoryResyncHandler(hubInstance, wheelService),
		log,
	)
	scheduler := asynq.NewScheduler(redisClientOpt, &asynq.SchedulerOpts{Location: time.UTC})

	// 7. Router
	router := NewRouter(cfg, log, stateRepo, Handlers{
		Auth:  httpHandler.NewAuthHandler(authService),
		Wheel: httpHandler.NewWheelHandler(wheelService, hubInstance),
		Win:   httpHandler.NewWinHandler(winService),
		WS:    wsHandler.NewWebSocketHandler(hubInstance, wheelService, cfg.CORSAllowedOrigin),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Application assembled successfully")
	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		Scheduler:   scheduler,
		Hub:         hubInstance,
		Spins:       spinService,
		HttpServer:  httpServer,
	}, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	go a.Hub.Run()
	go a.AsynqServer.Start()
	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	schedule := a.Config.ResyncSchedule
	entryID, err := a.Scheduler.Register(schedule, tasks.NewInventoryResyncTask(), asynq.Queue("low"))
	if err != nil {
		a.Log.Errorf("Could not register inventory resync task: %v", err)
		return
	}
	a.Log.Infof("Inventory resync task registered with schedule '%s' (EntryID: %s)", schedule, entryID)

	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := a.Scheduler.Run(); err != nil {
			a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
		}
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 先停止接收新连接和新请求
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	}

	// hijack 后的 WebSocket 连接不受 HttpServer.Shutdown 影响，由 Hub 断开
	a.Hub.Stop()
	// 等待已提交抽奖的中奖通知入队，再关闭 Asynq 客户端
	a.Spins.WaitNotifications()

	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Errorf("Error closing database connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}
