package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/controller"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/database"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"
	"lingua_edu_backend/pkg/security"
	"lingua_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Policy   *service.PolicyStore
	services *services
}

type repositories struct {
	user         *repository.UserRepository
	question     *repository.QuestionRepository
	assessment   *repository.AssessmentRepository
	level        *repository.LevelRepository
	review       *repository.ReviewRepository
	interference *repository.InterferenceRepository
	sample       *repository.SampleRepository
}

type services struct {
	auth         *service.AuthService
	gateway      *service.ScoringGateway
	profile      *service.ProfileService
	assessment   *service.AssessmentService
	review       *service.ReviewService
	interference *service.InterferenceService
	sample       *service.SampleService
}

type controllers struct {
	auth         *controller.AuthController
	assessment   *controller.AssessmentController
	review       *controller.ReviewController
	level        *controller.LevelController
	interference *controller.InterferenceController
	sample       *controller.SampleController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		question:     repository.NewQuestionRepository(db),
		assessment:   repository.NewAssessmentRepository(db),
		level:        repository.NewLevelRepository(db, rdb),
		review:       repository.NewReviewRepository(db),
		interference: repository.NewInterferenceRepository(db),
		sample:       repository.NewSampleRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}
	locker := util.NewLearnerLocker()

	s.auth = service.NewAuthService(repos.user, cfg)
	s.gateway = service.NewScoringGateway(cfg.AI)
	s.sample = service.NewSampleService(cfg.Storage, repos.sample)
	s.profile = service.NewProfileService(repos.level, repos.review, repos.interference, locker, db)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.question, repos.level,
		s.gateway, s.profile, a.Policy, locker, db)
	s.review = service.NewReviewService(repos.review, repos.level, s.profile, a.Policy, locker, db)
	s.interference = service.NewInterferenceService(repos.interference, s.gateway, s.sample,
		a.Policy, locker, db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		assessment:   controller.NewAssessmentController(s.assessment),
		review:       controller.NewReviewController(s.review),
		level:        controller.NewLevelController(s.profile),
		interference: controller.NewInterferenceController(s.interference, s.auth),
		sample:       controller.NewSampleController(s.sample),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ReloadConfig 配置热更新入口：策略表整体替换，正在进行的操作不受影响
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Policy.Update(cfg)
	logger.Log.Info("Policy config reloaded",
		zap.Int("placementBands", len(cfg.Assessment.PlacementBands)),
		zap.Int("reviewRecomputeThreshold", cfg.Assessment.ReviewRecomputeThreshold))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Policy: service.NewPolicyStore(cfg),
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(func() string {
		if cfg.Server.Mode == "release" {
			return gin.ReleaseMode
		}
		return gin.DebugMode
	}())
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lingua-edu", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
