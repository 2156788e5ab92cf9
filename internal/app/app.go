package app

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/controller"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/configwatcher"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/security"
	"learnhub_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Store           *repository.Store
	services        *services
	rateLimiter     *security.RateLimiter
	scheduler       *cron.Cron
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type services struct {
	storage    *service.StorageService
	uploads    *service.UploadService
	cache      *service.CourseCache
	notifier   service.Notifier
	guard      *service.OwnershipGuard
	course     *service.CourseService
	reader     *service.CourseReader
	enrollment *service.EnrollmentService
	quiz       *service.QuizService
	summary    *service.SummaryService
	integrity  *service.IntegrityService
}

type controllers struct {
	course     *controller.CourseController
	enrollment *controller.EnrollmentController
	curriculum *controller.CurriculumController
	integrity  *controller.IntegrityController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initServices(store *repository.Store, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.uploads = service.NewUploadService(s.storage)
	s.cache = service.NewCourseCache(rdb, cfg.Cache.CourseTTL())
	s.notifier = service.NewNotifier(cfg.Notification)
	s.guard = service.NewOwnershipGuard(store.Courses)

	s.course = service.NewCourseService(
		store,
		s.guard,
		service.NewCurriculumBuilder(),
		s.uploads,
		s.cache,
		s.notifier,
		cfg.Upload.MaxMediaBytes(),
	)
	s.reader = service.NewCourseReader(store, s.cache)
	s.enrollment = service.NewEnrollmentService(store, s.guard, s.cache, s.notifier)
	s.quiz = service.NewQuizService(store, s.guard, s.enrollment, s.cache)
	s.summary = service.NewSummaryService(store, s.guard, s.cache)
	s.integrity = service.NewIntegrityService(store)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		course:     controller.NewCourseController(s.course, s.reader, s.uploads),
		enrollment: controller.NewEnrollmentController(s.enrollment),
		curriculum: controller.NewCurriculumController(s.quiz, s.summary),
		integrity:  controller.NewIntegrityController(s.integrity),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.rateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	router.Use(a.rateLimiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloadables 注册可热更新的配置项
func (a *App) registerReloadables(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.course.SetMaxMediaBytes(cfg.Upload.MaxMediaBytes())
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.rateLimiter.Update(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	})
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("Config callbacks applied",
		zap.Int64("max_media_bytes", cfg.Upload.MaxMediaBytes()),
		zap.Int("rate_limit", cfg.RateLimit.MaxRequests))
}

func (a *App) startBackgroundTasks(s *services) {
	spec := a.Config.Jobs.IntegritySweep
	if spec == "" {
		return
	}

	purge := a.Config.Jobs.PurgeOrphans
	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.integrity.RunSweep(ctx, purge)
	})
	if err != nil {
		logger.Log.Error("Invalid integrity sweep schedule", zap.String("spec", spec), zap.Error(err))
		return
	}
	a.scheduler.Start()
	logger.Log.Info("Integrity sweep scheduled", zap.String("spec", spec), zap.Bool("purge", purge))
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb
	app.Store = repository.NewStore(db)

	services := app.initServices(app.Store, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerReloadables(services)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	configFile := filepath.Join(a.ConfigDir, "config.yaml")
	if err := configwatcher.WatchConfig(watchCtx, configFile, a.applyConfig); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.String("file", configFile), zap.Error(err))
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}
	a.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
