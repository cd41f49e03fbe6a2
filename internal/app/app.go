package app

import (
	"context"
	"log"
	"medqcm_backend/internal/config"
	"medqcm_backend/internal/controller"
	"medqcm_backend/internal/repository"
	"medqcm_backend/internal/service"
	"medqcm_backend/pkg/database"
	"medqcm_backend/pkg/logger"
	"medqcm_backend/pkg/monitoring"
	"medqcm_backend/pkg/security"
	"medqcm_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Cfg    *config.Store
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user     *repository.UserRepository
	code     *repository.CodeRepository
	module   *repository.ModuleRepository
	question *repository.QuestionRepository
	session  *repository.SessionRepository
	progress *repository.ProgressRepository
}

type services struct {
	auth     *service.AuthService
	content  *service.ContentService
	session  *service.SessionService
	progress *service.ProgressService
	admin    *service.AdminService
}

type controllers struct {
	auth     *controller.AuthController
	content  *controller.ContentController
	session  *controller.SessionController
	progress *controller.ProgressController
	admin    *controller.AdminController
	health   *controller.HealthController
}

// ApplyConfig publishes a reloaded configuration through the atomic store.
// Handlers load it per request, so a new JWT secret or CORS list takes
// effect on the next request; server, database and tracing settings still
// need a restart.
func (a *App) ApplyConfig(newCfg *config.Config) {
	newCfg.ForceMigrate = a.Config.ForceMigrate
	newCfg.MigrateOnly = a.Config.MigrateOnly
	a.Cfg.Swap(newCfg)
	logger.Log.Info("Configuration reloaded")
}

func initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		code:     repository.NewCodeRepository(db),
		module:   repository.NewModuleRepository(db),
		question: repository.NewQuestionRepository(db),
		session:  repository.NewSessionRepository(db),
		progress: repository.NewProgressRepository(db),
	}
}

func initServices(repos *repositories, cfg *config.Store, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}
	s.auth = service.NewAuthService(repos.user, repos.code, cfg)
	s.content = service.NewContentService(repos.module, repos.question, rdb)
	s.session = service.NewSessionService(repos.session, repos.question, repos.progress, db)
	s.progress = service.NewProgressService(repos.progress)
	s.admin = service.NewAdminService(repos.user, repos.code, repos.module, repos.question, repos.session, s.content, db)
	return s
}

func initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		content:  controller.NewContentController(s.content),
		session:  controller.NewSessionController(s.session),
		progress: controller.NewProgressController(s.progress),
		admin:    controller.NewAdminController(s.admin),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(func() []string {
		return a.Cfg.Load().CORS.AllowedOrigins
	}))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(1000, time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := database.Seed(db); err != nil {
		logger.Log.Warn("Database seed skipped", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// The catalog cache is an optimization; run without it.
		logger.Log.Warn("Redis unavailable, module cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		Cfg:    config.NewStore(cfg),
		DB:     db,
		Redis:  rdb,
	}

	repos := initRepositories(db)
	services := initServices(repos, app.Cfg, db, rdb)
	controllers := initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("medqcm-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
