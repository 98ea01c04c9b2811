package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/config"
	"github.com/marcucus/goldwen-backend/internal/infra/gemini"
	"github.com/marcucus/goldwen-backend/internal/infra/push"
	s3infra "github.com/marcucus/goldwen-backend/internal/infra/s3"
	"github.com/marcucus/goldwen-backend/internal/jobs/photomod"
	pgrepo "github.com/marcucus/goldwen-backend/internal/repo/postgres"
	redrepo "github.com/marcucus/goldwen-backend/internal/repo/redis"
	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	completionsvc "github.com/marcucus/goldwen-backend/internal/services/completion"
	modsvc "github.com/marcucus/goldwen-backend/internal/services/moderation"
	notifysvc "github.com/marcucus/goldwen-backend/internal/services/notify"
	personalitysvc "github.com/marcucus/goldwen-backend/internal/services/personality"
	photosvc "github.com/marcucus/goldwen-backend/internal/services/photos"
	profilesvc "github.com/marcucus/goldwen-backend/internal/services/profiles"
	promptsvc "github.com/marcucus/goldwen-backend/internal/services/prompts"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler

	sweeper   *photomod.Job
	stopSweep chan struct{}
	stopOnce  sync.Once
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	verdictCache := redrepo.NewVerdictCacheRepo(redisClient, cfg.Moderation.VerdictCacheTTL)

	profileRepo := pgrepo.NewProfileRepo(pool)
	photoRepo := pgrepo.NewPhotoRepo(pool)
	promptRepo := pgrepo.NewPromptRepo(pool)
	questionRepo := pgrepo.NewQuestionRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	deviceRepo := pgrepo.NewDeviceRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}
	photoStorage := photosvc.NewS3Storage(s3Client, cfg.S3.Bucket)

	blocklist, err := modsvc.LoadBlocklist(cfg.Moderation.BlocklistPath, cfg.Moderation.ExtraTerms)
	if err != nil {
		log.Warn("blocklist file load failed, using built-in terms only", zap.Error(err))
		blocklist = modsvc.NewBlocklist(cfg.Moderation.ExtraTerms)
	}

	policy, err := modsvc.ParseFailPolicy(cfg.Moderation.FailPolicy)
	if err != nil {
		log.Warn("invalid moderation fail policy, defaulting to open", zap.Error(err))
		policy = modsvc.FailOpen
	}

	var classifier modsvc.Classifier
	if cfg.Moderation.GeminiAPIKey != "" {
		if c, err := gemini.NewClient(ctx, cfg.Moderation.GeminiAPIKey, cfg.Moderation.GeminiModel); err != nil {
			log.Warn("gemini init failed, continuing in degraded mode", zap.Error(err))
		} else {
			classifier = c
		}
	} else {
		log.Warn("gemini api key not configured, classifier verdicts follow the fail policy")
	}
	classifierAdapter := modsvc.NewClassifierAdapter(classifier, policy, log)

	var pushSender notifysvc.Sender
	if cfg.Push.Enabled {
		if s, err := push.NewAPNsSender(push.Config{
			AuthKeyPath: cfg.Push.AuthKey,
			KeyID:       cfg.Push.KeyID,
			TeamID:      cfg.Push.TeamID,
			Topic:       cfg.Push.Topic,
			Production:  cfg.Push.Production,
		}); err != nil {
			log.Warn("apns init failed, push notifications disabled", zap.Error(err))
		} else {
			pushSender = s
		}
	}
	notifyService := notifysvc.NewService(deviceRepo, pushSender, log)

	moderationService := modsvc.NewService(modsvc.Dependencies{
		Blocklist:  blocklist,
		Classifier: classifierAdapter,
		Photos:     photoRepo,
		Objects:    photoStorage,
		Cache:      verdictCache,
		Notifier:   notifyService,
		Logger:     log,
	}, modsvc.Config{
		BatchConcurrency: cfg.Moderation.BatchConcurrency,
	})

	completionService := completionsvc.NewService(completionsvc.Dependencies{
		Profiles:  profileRepo,
		Photos:    photoRepo,
		Prompts:   promptRepo,
		Questions: questionRepo,
		Users:     userRepo,
		Logger:    log,
	}, completionsvc.Config{
		MinPhotos:       cfg.Completion.MinPhotos,
		RequiredPrompts: cfg.Completion.RequiredPrompts,
	})

	profileService := profilesvc.NewService(profilesvc.Dependencies{
		Store:      profileRepo,
		Moderator:  moderationService,
		Completion: completionService,
		Logger:     log,
	})
	photoService := photosvc.NewService(photosvc.Dependencies{
		Store:      photoRepo,
		Storage:    photoStorage,
		Moderator:  moderationService,
		Completion: completionService,
		Logger:     log,
	})
	promptService := promptsvc.NewService(promptsvc.Dependencies{
		Store:      promptRepo,
		Moderator:  moderationService,
		Completion: completionService,
		Logger:     log,
	})
	personalityService := personalitysvc.NewService(personalitysvc.Dependencies{
		Store:      questionRepo,
		Moderator:  moderationService,
		Completion: completionService,
		Logger:     log,
	})

	sweeper := photomod.New(photoRepo, moderationService, cfg.Moderation.PendingMinAge, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:         jwtManager,
		ProfileService:     profileService,
		PhotoService:       photoService,
		PromptService:      promptService,
		PersonalityService: personalityService,
		CompletionService:  completionService,
		DeviceRepo:         deviceRepo,
		Logger:             log,
		Config:             cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
		sweeper:    sweeper,
		stopSweep:  make(chan struct{}),
	}, nil
}

func (a *App) Run() error {
	if a.cfg.Moderation.PendingSweep > 0 {
		go a.runSweeper(a.cfg.Moderation.PendingSweep)
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// runSweeper re-runs moderation on photos whose verdict never landed.
func (a *App) runSweeper(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopSweep:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), every)
			if err := a.sweeper.Run(ctx); err != nil {
				a.logger.Warn("pending photo sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopSweep) })

	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
