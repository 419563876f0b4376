package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/huntier-api/internal/application/application"
	"github.com/huntier-api/internal/application/auth"
	"github.com/huntier-api/internal/application/blacklist"
	"github.com/huntier-api/internal/application/job"
	"github.com/huntier-api/internal/application/otp"
	"github.com/huntier-api/internal/application/profile"
	"github.com/huntier-api/internal/application/resume"
	"github.com/huntier-api/internal/application/savedjob"
	"github.com/huntier-api/internal/application/session"
	"github.com/huntier-api/internal/application/user"
	"github.com/huntier-api/internal/config"
	"github.com/huntier-api/internal/infrastructure/dynamo"
	"github.com/huntier-api/internal/infrastructure/google"
	jwtinfra "github.com/huntier-api/internal/infrastructure/jwt"
	"github.com/huntier-api/internal/infrastructure/notify"
	"github.com/huntier-api/internal/infrastructure/postgres"
	s3infra "github.com/huntier-api/internal/infrastructure/s3"
	"github.com/huntier-api/internal/infrastructure/smtp"
	"github.com/huntier-api/internal/infrastructure/sns"
	transporthttp "github.com/huntier-api/internal/transport/http"
	"github.com/huntier-api/internal/transport/http/handler"
	"github.com/joho/godotenv"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}
	cfg := config.Load()

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DynamoDB holds sessions and one-time code state.
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// Postgres holds users, profiles, jobs and applications.
	pool, err := postgres.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	resumeStore := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMS is optional in development; phone contacts fail until it is configured.
	var sms notify.SMSSender
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		sms = sender
	} else if cfg.IsProduction() {
		return fmt.Errorf("sns sender: %w", err)
	} else {
		slog.Warn("SNS sender not available", "err", err)
	}
	dispatcher := notify.NewDispatcher(smtp.NewMailer(cfg), sms)

	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)
	userRepo := postgres.NewUserRepo(pool)
	profileRepo := postgres.NewProfileRepo(pool)
	resumeRepo := postgres.NewResumeRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)

	blacklistSvc := blacklist.NewService(blacklist.ServiceDeps{
		Repo: dynamo.NewBlacklistRepo(dynamoClient, cfg.DynamoTables.Blacklist),
	})
	otpSvc := otp.NewService(otp.ServiceDeps{
		Codes:     dynamo.NewOTPCodeRepo(dynamoClient, cfg.DynamoTables.OTPCodes),
		Windows:   dynamo.NewOTPWindowRepo(dynamoClient, cfg.DynamoTables.OTPWindows),
		Blacklist: blacklistSvc,
		Sender:    dispatcher,
		Policy:    cfg.OTP,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     sessionRepo,
		UserRepo:        userRepo,
		JWTProvider:     jwtProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})

	deps := &transporthttp.Deps{
		Auth: auth.NewService(auth.ServiceDeps{
			OTP:            otpSvc,
			UserRepo:       userRepo,
			ProfileRepo:    profileRepo,
			Sessions:       sessionSvc,
			GoogleVerifier: google.NewVerifier(cfg.GoogleClientID),
		}),
		Sessions: sessionSvc,
		Profiles: profile.NewService(profile.ServiceDeps{
			UserRepo:    userRepo,
			ProfileRepo: profileRepo,
			ResumeRepo:  resumeRepo,
			OTP:         otpSvc,
		}),
		Resumes: resume.NewService(resume.ServiceDeps{
			ResumeRepo: resumeRepo,
			Objects:    resumeStore,
			PresignTTL: cfg.ResumePresignTTL,
		}),
		Jobs: job.NewService(job.ServiceDeps{JobRepo: jobRepo}),
		Applications: application.NewService(application.ServiceDeps{
			ApplicationRepo: postgres.NewApplicationRepo(pool),
			JobRepo:         jobRepo,
			ResumeRepo:      resumeRepo,
			ProfileRepo:     profileRepo,
		}),
		SavedJobs: savedjob.NewService(savedjob.ServiceDeps{
			SavedJobRepo: postgres.NewSavedJobRepo(pool),
			JobRepo:      jobRepo,
		}),
		Blacklist: blacklistSvc,
		AdminUsers: user.NewService(user.ServiceDeps{
			UserRepo:    userRepo,
			SessionRepo: sessionRepo,
		}),
		Tokens: jwtProvider,
		Users:  userRepo,
		HealthChecks: map[string]handler.Pinger{
			"postgres": pool,
			"dynamodb": handler.PingFunc(func(ctx context.Context) error {
				_, err := dynamoClient.DescribeTable(ctx, &dynamodb.DescribeTableInput{
					TableName: aws.String(cfg.DynamoTables.Sessions),
				})
				return err
			}),
		},
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
