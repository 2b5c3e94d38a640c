package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/service"
	"github.com/noah-isme/escuela-portal-api/pkg/response"
)

const (
	liveWriteWait    = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// newUpgrader accepts any origin when allowedOrigins is empty, matching the CORS middleware.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// wsConn serialises writes; gorilla connections support one concurrent writer.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (w *wsConn) send(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.ws.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return w.ws.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait))
}

// CourseLiveHandler streams a teacher's course list as it changes.
type CourseLiveHandler struct {
	courses  *service.CourseService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewCourseLiveHandler constructs the live course feed.
func NewCourseLiveHandler(courses *service.CourseService, allowedOrigins []string, logger *zap.Logger) *CourseLiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseLiveHandler{courses: courses, upgrader: newUpgrader(allowedOrigins), logger: logger}
}

type courseSnapshot struct {
	Action  string          `json:"action"`
	Courses []models.Course `json:"courses"`
}

// Stream godoc
// @Summary Live course list of the signed-in teacher
// @Description Upgrades to a websocket and pushes a full snapshot on every change.
// @Tags Courses
// @Security BearerAuth
// @Param teacherId query string false "Teacher ID (administrators only)"
// @Param access_token query string false "Access token for browser clients"
// @Success 101
// @Router /teacher/courses/live [get]
func (h *CourseLiveHandler) Stream(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(chan []models.Course, 1)
	stop, err := h.courses.WatchTeacherCourses(ctx, sessionFromContext(c), c.Query("teacherId"), func(courses []models.Course) {
		// Latest snapshot wins; a slow client never blocks the store.
		for {
			select {
			case updates <- courses:
				return
			case <-ctx.Done():
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stop()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("course feed upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	conn := &wsConn{ws: ws}

	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case courses := <-updates:
			if err := conn.send(courseSnapshot{Action: "courses", Courses: courses}); err != nil {
				h.logger.Debug("course feed closed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
