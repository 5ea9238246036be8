package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talktrack-backend/config"
	"talktrack-backend/controllers"
	"talktrack-backend/designer"
	"talktrack-backend/logging"
	"talktrack-backend/metrics"
	"talktrack-backend/models"
	"talktrack-backend/notify"
	"talktrack-backend/routes"
	"talktrack-backend/services"
	"talktrack-backend/storage"
	"talktrack-backend/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting talktrack backend", "env", cfg.Env, "port", cfg.Port)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx := context.Background()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := utils.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		if awsCfg, err = config.LoadAWSConfig(ctx, cfg); err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
	}

	email := emailSender(cfg, awsCfg, logger)
	var sms notify.SMSSender = notify.NewStubSMSSender(logger)
	if tw := notify.NewTwilioSender(notify.TwilioConfig{
		AccountSID:  cfg.TwilioAccountSID,
		AuthToken:   cfg.TwilioAuthToken,
		FromNumber:  cfg.TwilioPhoneNumber,
		CountryCode: cfg.TwilioCountryCode,
	}, logger); tw != nil {
		sms = tw
	}

	var logos *storage.LogoStore
	if cfg.LogoBucket != "" {
		logos = storage.NewLogoStore(s3.NewFromConfig(awsCfg), cfg.LogoBucket, cfg.AWSRegion, cfg.LogoPublicBaseURL, logger)
	}

	var limiter *utils.RateLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting fails open", "error", err)
		}
		cancel()
		limiter = utils.NewRateLimiter(client, cfg.PublicRateLimit, cfg.PublicRateWindow, logger)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	registry := designer.NewRegistry(cfg.DesignerSessionTTL)
	dispatch := services.NewDispatcher(db, email, sms, m, logger)
	forms := services.NewFormService(db, registry, m, logger)
	appointments := services.NewAppointmentService(db, forms, dispatch, cfg.PublicBaseURL, m, logger)
	digest := services.NewDigestService(db, appointments, dispatch, cfg.DigestPendingAge, cfg.PublicBaseURL, logger)
	designerSvc := services.NewDesignerService(forms, registry, m, logger)

	handler := &controllers.Handler{
		Auth:           services.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiryHours, logger),
		Business:       services.NewBusinessService(db, logos, logger),
		Forms:          forms,
		Appointments:   appointments,
		Notifications:  services.NewNotificationService(db),
		Stats:          services.NewStatsService(db),
		Designer:       designerSvc,
		JWTExpiryHours: cfg.JWTExpiryHours,
		SecureCookies:  cfg.IsProduction(),
		Logger:         logger,
	}

	scheduler, err := utils.StartScheduler(logger,
		utils.Job{Name: "pending-digest", Spec: cfg.DigestCron, Run: func() {
			if _, err := digest.Run(context.Background(), time.Now()); err != nil {
				logger.Error("pending digest failed", "error", err)
			}
		}},
		utils.Job{Name: "designer-sweep", Spec: "@every 1m", Run: func() {
			designerSvc.Sweep(time.Now())
		}},
	)
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	r := routes.SetupRouter(routes.Deps{
		Handler:     handler,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		RateLimiter: limiter,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		Logger:      logger,
	})
	printRoutes(r, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// emailSender picks the configured provider, falling back to the log stub.
func emailSender(cfg *config.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s
		}
		logger.Warn("SENDGRID_API_KEY not set, emails will only be logged")
	case "ses":
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
	}
	return notify.NewStubEmailSender(logger)
}

func printRoutes(r *gin.Engine, logger *logging.Logger) {
	for _, route := range r.Routes() {
		logger.Debug("route", "method", route.Method, "path", route.Path)
	}
}
