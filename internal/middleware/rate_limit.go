package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"poliventas-service/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Tier es una política de rate limit. Cada tier tiene su propio bucket por usuario.
type Tier struct {
	Name  string
	Limit rate.Limit
	Burst int
}

// Strict aplica al webhook y a las mutaciones de órdenes.
var Strict = Tier{Name: "strict", Limit: rate.Limit(2), Burst: 5}

func General(rps float64, burst int) Tier {
	return Tier{Name: "general", Limit: rate.Limit(rps), Burst: burst}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		ttl:      3 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getVisitor(key string, t Tier) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.Limit, t.Burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Cleanup elimina los visitantes inactivos.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, k)
		}
	}
}

func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Middleware usa el usuario autenticado como identidad, o la IP si no hay sesión.
func (rl *RateLimiter) Middleware(t Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := "ip:" + c.ClientIP()
		if userID := c.GetString(ctxUserID); userID != "" {
			identity = "user:" + userID
		}
		key := fmt.Sprintf("%s:%s", identity, t.Name)

		if !rl.getVisitor(key, t).AllowN(rl.now(), 1) {
			logger.FromCtx(c.Request.Context()).Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.FullPath()),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "demasiadas solicitudes, intente más tarde"})
			return
		}
		c.Next()
	}
}
