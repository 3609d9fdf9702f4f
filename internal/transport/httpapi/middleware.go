package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Leganyst/studio-booking/internal/idempotency"
	"github.com/Leganyst/studio-booking/internal/metrics"
)

// requestLogger пишет одну строку на запрос; уровень зависит от статуса.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http request")
		case status >= http.StatusBadRequest:
			entry.Warn("http request")
		default:
			entry.Info("http request")
		}
	}
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов с одного IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.idle {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idle {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error:   errRateLimited,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
)

// captureWriter копирует тело ответа, чтобы сохранить его под ключом идемпотентности.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotent повторяет сохранённый ответ для уже обработанного Idempotency-Key.
// Без заголовка или без хранилища запрос проходит как обычно.
func idempotent(store idempotency.Store, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			badRequest(c, "cannot read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := idempotency.RequestHash(c.Request.Method, c.Request.URL.Path, body)

		ctx := c.Request.Context()
		rec, reserved, err := store.Reserve(ctx, key, hash)
		if err != nil {
			writeError(c, log, err)
			return
		}
		if !reserved {
			switch {
			case rec.RequestHash != hash:
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
					Error:   "idempotency_key_reused",
					Message: "idempotency key was used for a different request",
				})
			case !rec.Done():
				c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
					Error:   "idempotency_in_progress",
					Message: "request with this idempotency key is still being processed",
				})
			default:
				c.Header(replayedHeader, "true")
				c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
				c.Abort()
			}
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, key); err != nil {
				log.WithError(err).WithField("key", key).Warn("idempotency release failed")
			}
			return
		}
		if err := store.Complete(ctx, key, idempotency.Record{
			RequestHash: hash,
			Status:      status,
			Body:        w.body.Bytes(),
		}); err != nil {
			log.WithError(err).WithField("key", key).Warn("idempotency complete failed")
		}
	}
}
