package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prosper-investor/internal/monitor"
)

type eventRunner interface {
	RunEvent(ctx context.Context, event string) error
	RejectEvent(ctx context.Context, reason error)
}

type eventLister interface {
	ListEvents(ctx context.Context, eventType monitor.EventType, limit int) ([]monitor.Event, error)
}

// pushEnvelope 为 Pub/Sub 推送订阅的请求体。
type pushEnvelope struct {
	Message struct {
		Data        string            `json:"data"`
		MessageID   string            `json:"messageId"`
		Attributes  map[string]string `json:"attributes"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

var errEmptyEventData = errors.New("message.data 为空")

// decodeEventName 解析推送消息中 base64 编码的事件名。
func decodeEventName(env pushEnvelope) (string, error) {
	if env.Message.Data == "" {
		return "", errEmptyEventData
	}
	raw, err := base64.StdEncoding.Strict().DecodeString(env.Message.Data)
	if err != nil {
		return "", fmt.Errorf("message.data 不是合法的 base64: %w", err)
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return "", errEmptyEventData
	}
	return name, nil
}

func newRouter(runner eventRunner, events eventLister, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/pubsub", func(c *gin.Context) {
		var env pushEnvelope
		if err := c.ShouldBindJSON(&env); err != nil {
			logger.Warn("无法解析推送消息", zap.Error(err))
			runner.RejectEvent(c.Request.Context(), err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		event, err := decodeEventName(env)
		if err != nil {
			logger.Warn("无法解码事件名", zap.String("message_id", env.Message.MessageID), zap.Error(err))
			runner.RejectEvent(c.Request.Context(), err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		logger.Info("收到推送事件", zap.String("event", event), zap.String("message_id", env.Message.MessageID))
		if err := runner.RunEvent(c.Request.Context(), event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"event": event, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": event, "status": "ok"})
	})

	r.GET("/events", func(c *gin.Context) {
		if events == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run journal disabled"})
			return
		}

		limit := 200
		if qs := c.Query("limit"); qs != "" {
			if v, err := strconv.Atoi(qs); err == nil && v > 0 {
				if v > 1000 {
					v = 1000
				}
				limit = v
			}
		}
		eventType := monitor.EventType(strings.ToLower(strings.TrimSpace(c.Query("type"))))

		list, err := events.ListEvents(c.Request.Context(), eventType, limit)
		if err != nil {
			logger.Warn("查询运行日志失败", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	return r
}

// Serve 启动 HTTP 入口，ctx 结束后优雅关闭。
func (a *App) Serve(ctx context.Context) error {
	var lister eventLister
	if a.monitor != nil {
		lister = a.monitor
	}

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a, lister, a.logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP 服务已启动", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP 服务异常: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info("系统收到退出信号，正在停止 HTTP 服务")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭 HTTP 服务失败: %w", err)
	}
	return nil
}
