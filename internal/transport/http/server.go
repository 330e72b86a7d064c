package loophttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"alphaloop/internal/agent"
	"alphaloop/internal/logger"
	"alphaloop/internal/store/decisionlog"
)

// 中文说明：
// 循环控制 HTTP 服务。提供 /api/loop 下的启停、单次触发与状态查询，
// 以及 /api/decisions 的决策审计日志查询。

// DecisionLogReader 决策审计日志的只读视图。
type DecisionLogReader interface {
	List(ctx context.Context, q decisionlog.Query) ([]decisionlog.Record, error)
}

type Server struct {
	addr       string
	router     *gin.Engine
	supervisor *agent.Supervisor
	logs       DecisionLogReader
}

func NewServer(addr string, supervisor *agent.Supervisor, logs DecisionLogReader) (*Server, error) {
	if supervisor == nil {
		return nil, errors.New("loop http server requires a supervisor")
	}
	if addr == "" {
		addr = ":8086"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s := &Server{addr: addr, router: router, supervisor: supervisor, logs: logs}
	group := router.Group("/api/loop")
	group.POST("/start", s.handleStart)
	group.POST("/stop", s.handleStop)
	group.POST("/run", s.handleRunOnce)
	group.GET("/status", s.handleStatus)
	if logs != nil {
		router.GET("/api/decisions", s.handleDecisions)
	}
	return s, nil
}

func (s *Server) handleStart(c *gin.Context) {
	if err := s.supervisor.Start(context.Background()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (s *Server) handleStop(c *gin.Context) {
	s.supervisor.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

func (s *Server) handleRunOnce(c *gin.Context) {
	state, err := s.supervisor.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trace_id": state.TraceID,
		"actions":  len(state.Actions),
		"report":   state.ReportPath,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.Status())
}

func (s *Server) handleDecisions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	records, err := s.logs.List(c.Request.Context(), decisionlog.Query{
		Symbol: c.Query("symbol"),
		Trace:  c.Query("trace_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// requestLogger 记录接口调用，便于追踪人工触发。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Infof("HTTP 服务已启动 addr=%s", s.addr)
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}
