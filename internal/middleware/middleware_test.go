package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	user *service.AuthUser
	err  error
}

func (s stubValidator) ValidateToken(string) (*service.AuthUser, error) {
	return s.user, s.err
}

func TestAuthMiddleware(t *testing.T) {
	user := &service.AuthUser{ID: primitive.NewObjectID(), Name: "Ana", Role: service.RoleSeller}

	newRouter := func(v TokenValidator) *gin.Engine {
		r := gin.New()
		r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
			req, ok := CurrentUser(c)
			assert.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"id": req.ID.Hex(), "role": req.Role, "userID": c.GetString("userID")})
		})
		return r
	}

	t.Run("Missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(stubValidator{user: user}).ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		newRouter(stubValidator{err: errors.New("nope")}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		newRouter(stubValidator{user: user}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.ID.Hex())
		assert.Contains(t, w.Body.String(), `"role":"vendedor"`)
	})
}

func TestCurrentUser_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentUser(c)
	assert.False(t, ok)
}

func TestRequireRole(t *testing.T) {
	newRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			c.Set(ctxUserRole, role)
			c.Next()
		}, RequireRole(service.RoleAdmin), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	w := httptest.NewRecorder()
	newRouter(service.RoleAdmin).ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newRouter(service.RoleBuyer).ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	tier := Tier{Name: "test", Limit: rate.Limit(1), Burst: 2}
	r := gin.New()
	r.POST("/ordenes", func(c *gin.Context) {
		if u := c.GetHeader("X-User"); u != "" {
			c.Set(ctxUserID, u)
		}
		c.Next()
	}, rl.Middleware(tier), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	do := func(user string) int {
		req := httptest.NewRequest("POST", "/ordenes", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, do("a"))
	assert.Equal(t, http.StatusCreated, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))

	// buckets separados por usuario
	assert.Equal(t, http.StatusCreated, do("b"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusCreated, do("a"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.getVisitor("user:1:general", General(10, 20))
	now = now.Add(5 * time.Minute)
	rl.getVisitor("user:2:general", General(10, 20))

	rl.Cleanup()

	assert.NotContains(t, rl.visitors, "user:1:general")
	assert.Contains(t, rl.visitors, "user:2:general")
}
