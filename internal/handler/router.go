package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/middleware"
	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/escuela-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/escuela-portal-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Auth        *AuthHandler
	Courses     *CourseHandler
	CourseLive  *CourseLiveHandler
	Subjects    *SubjectHandler
	Students    *StudentHandler
	Teachers    *TeacherHandler
	Parents     *ParentHandler
	ParentLive  *ParentTypeaheadHandler
	Assignments *AssignmentHandler
	Attendance  *AttendanceHandler
	Grades      *GradeHandler
	Portal      *PortalHandler
	Health      *HealthHandler
}

// RouterOptions tunes the engine.
type RouterOptions struct {
	APIPrefix      string
	AllowedOrigins []string
	Docs           bool
}

// NewRouter builds the gin engine with the global middleware chain and every route.
func NewRouter(h Handlers, tokens middleware.TokenValidator, metrics *service.MetricsService, logr *zap.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	if metrics != nil {
		r.GET("/metrics", h.Health.Prometheus)
	}
	if opts.Docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	secured.GET("/auth/me", h.Auth.Me)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	parent := middleware.RequireRoles(models.RoleStudent)

	courses := secured.Group("/courses")
	courses.GET("", admin, h.Courses.List)
	courses.POST("", admin, h.Courses.Create)
	courses.GET("/grouped", admin, h.Courses.Grouped)
	courses.GET("/:id", staff, h.Courses.Get)
	courses.PUT("/:id", admin, h.Courses.Update)
	courses.DELETE("/:id", admin, h.Courses.Delete)
	courses.GET("/:id/assignments", staff, h.Assignments.List)
	courses.POST("/:id/assignments", staff, h.Assignments.Create)
	courses.GET("/:id/assignments/:taskId", staff, h.Assignments.Get)
	courses.PUT("/:id/assignments/:taskId", staff, h.Assignments.Update)
	courses.GET("/:id/assignments/:taskId/statuses", staff, h.Assignments.Statuses)
	courses.PUT("/:id/assignments/:taskId/statuses", staff, h.Assignments.Grade)

	secured.GET("/grades/:grade/subjects", staff, h.Courses.SubjectsForGrade)

	subjects := secured.Group("/subjects")
	subjects.GET("", staff, h.Subjects.List)
	subjects.POST("", admin, h.Subjects.Create)
	subjects.GET("/:id", staff, h.Subjects.Get)
	subjects.PUT("/:id", admin, h.Subjects.Update)
	subjects.DELETE("/:id", admin, h.Subjects.Delete)

	students := secured.Group("/students")
	students.GET("", staff, h.Students.List)
	students.POST("", admin, h.Students.Create)
	students.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), "SELF"), h.Students.Get)
	students.PUT("/:id", admin, h.Students.Update)
	students.DELETE("/:id", admin, h.Students.Delete)

	teachers := secured.Group("/teachers")
	teachers.GET("", admin, h.Teachers.List)
	teachers.POST("", admin, h.Teachers.Create)
	teachers.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), h.Teachers.Get)
	teachers.PUT("/:id", admin, h.Teachers.Update)
	teachers.DELETE("/:id", admin, h.Teachers.Delete)

	parents := secured.Group("/parents", admin)
	parents.GET("/search", h.Parents.Search)
	parents.POST("", h.Parents.Create)
	parents.GET("/typeahead", h.ParentLive.Stream)

	teacher := secured.Group("/teacher", staff)
	teacher.GET("/courses", h.Courses.TeacherCourses)
	teacher.GET("/courses/live", h.CourseLive.Stream)

	secured.GET("/attendance/sheet", staff, h.Attendance.Sheet)
	secured.PUT("/attendance/sheet", staff, h.Attendance.Save)
	secured.GET("/grade-sheets", staff, h.Grades.Sheet)
	secured.PUT("/grade-sheets", staff, h.Grades.Save)
	secured.GET("/grade-sheets/export", staff, h.Grades.Export)

	me := secured.Group("/me", parent)
	me.GET("/assignments", h.Portal.Assignments)
	me.GET("/attendance", h.Portal.Attendance)
	me.GET("/grades", h.Portal.Grades)

	return r
}
