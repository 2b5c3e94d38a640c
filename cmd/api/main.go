package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/noah-isme/escuela-portal-api/api/swagger"
	"github.com/noah-isme/escuela-portal-api/internal/handler"
	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/cache"
	"github.com/noah-isme/escuela-portal-api/pkg/config"
	"github.com/noah-isme/escuela-portal-api/pkg/database"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/identity"
	"github.com/noah-isme/escuela-portal-api/pkg/logger"
	"github.com/noah-isme/escuela-portal-api/pkg/platform"
)

// @title Escuela Portal API
// @version 1.0.0
// @description School administration, teacher and parent portals
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadinessCheck{}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var clients *platform.Clients
	needStore := cfg.Backend.Driver == config.BackendFirestore
	needAuth := cfg.Backend.IdentityDriver == config.IdentityFirebase
	if needStore || needAuth {
		clients, err = platform.Connect(ctx, cfg.Firebase, needStore, needAuth)
		if err != nil {
			logr.Fatal("failed to connect to firebase", zap.Error(err))
		}
		defer clients.Close()
	}

	var store docstore.Store
	switch cfg.Backend.Driver {
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		pg := docstore.NewPostgres(db, docstore.WithListener(cfg.Database.DSN()), docstore.WithLogger(logr))
		if err := pg.Migrate(ctx); err != nil {
			logr.Fatal("failed to migrate documents", zap.Error(err))
		}
		store = pg
		checks["postgres"] = db.PingContext
	case config.BackendFirestore:
		store = docstore.NewFirestore(clients.Firestore, logr)
	default:
		logr.Warn("using in-memory document store; data is lost on restart")
		store = docstore.NewMemory()
	}
	if metrics != nil {
		store = docstore.Instrument(store, metrics)
	}

	var accounts identity.Provider
	switch cfg.Backend.IdentityDriver {
	case config.IdentityFirebase:
		accounts, err = identity.NewFirebase(ctx, clients.Auth, cfg.Firebase.WebAPIKey)
		if err != nil {
			logr.Fatal("failed to init firebase identity", zap.Error(err))
		}
	default:
		accounts = identity.NewLocal(store, bcrypt.DefaultCost)
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable; catalogue cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	subjectRepo := repository.NewSubjectRepository(store)
	teacherRepo := repository.NewTeacherRepository(store)
	studentRepo := repository.NewStudentRepository(store)
	parentRepo := repository.NewParentRepository(store)
	courseRepo := repository.NewCourseRepository(store)

	authSvc := service.NewAuthService(accounts, repository.NewAccountRepository(store), nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, nil, logr, service.SubjectConfig{NameMatching: cfg.Subjects.NameMatching})
	courseSvc := service.NewCourseService(courseRepo, subjectRepo, teacherRepo, cacheSvc, metrics, nil, logr, service.CourseConfig{
		ExcludedRepresentative: cfg.Courses.ExcludedRepresentative,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, accounts, nil, logr)
	parentSvc := service.NewParentService(parentRepo, nil, logr, service.ParentConfig{
		SearchMinChars: cfg.Parents.SearchMinChars,
		Debounce:       cfg.Parents.Debounce,
	})
	studentSvc := service.NewStudentService(studentRepo, courseSvc, parentRepo, accounts, nil, logr)
	assignmentSvc := service.NewAssignmentService(repository.NewAssignmentRepository(store), courseRepo, studentRepo, subjectRepo, metrics, nil, logr, service.AssignmentConfig{
		FanoutConcurrency: cfg.Assignments.FanoutConcurrency,
		DueSoonDays:       cfg.Assignments.DueSoonDays,
	})
	attendanceSvc := service.NewAttendanceService(repository.NewAttendanceRepository(store), studentRepo, subjectRepo, metrics, nil, logr, cfg.Assignments.FanoutConcurrency)
	gradeSvc := service.NewGradeService(repository.NewGradeRepository(store), studentRepo, nil, logr)

	if cfg.Bootstrap.Enabled() {
		bootstrapAdmin(ctx, authSvc, cfg.Bootstrap, logr)
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		CourseLive:  handler.NewCourseLiveHandler(courseSvc, cfg.CORS.AllowedOrigins, logr),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc),
		Parents:     handler.NewParentHandler(parentSvc),
		ParentLive:  handler.NewParentTypeaheadHandler(parentSvc, cfg.CORS.AllowedOrigins, logr),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Grades:      handler.NewGradeHandler(gradeSvc),
		Portal:      handler.NewPortalHandler(assignmentSvc, attendanceSvc, gradeSvc),
		Health:      handler.NewHealthHandler(metrics, checks),
	}, authSvc, metrics, logr, handler.RouterOptions{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Docs:           cfg.Env != config.EnvProduction,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "backend", cfg.Backend.Driver)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	case <-ctx.Done():
		logr.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("could not stop server gracefully", zap.Error(err))
			_ = server.Close()
		}
	}
}

func bootstrapAdmin(ctx context.Context, auth *service.AuthService, cfg config.BootstrapConfig, logr *zap.Logger) {
	_, err := auth.BootstrapAdmin(ctx, models.BootstrapAdminRequest{
		Name:       cfg.AdminName,
		NationalID: cfg.AdminNationalID,
		Email:      cfg.AdminEmail,
		Password:   cfg.AdminPassword,
	})
	switch {
	case err == nil:
	case errors.Is(err, appErrors.ErrDuplicate):
		logr.Info("bootstrap administrator already registered", zap.String("email", cfg.AdminEmail))
	default:
		logr.Fatal("failed to bootstrap administrator", zap.Error(err))
	}
}
