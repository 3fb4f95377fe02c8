package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"foodshare/internal/access"
	"foodshare/internal/core/auth"
	"foodshare/internal/core/cache"
	"foodshare/internal/domain"
	resp "foodshare/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func do(t *testing.T, r http.Handler, req *http.Request) resp.Resp {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var out resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func get(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthJWT(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	deny := auth.NewDenylist(cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})))
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "foodshare", TTL: time.Hour}

	r := gin.New()
	r.GET("/who", AuthJWT(j, deny, ""), func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{"uid": c.GetString(KeyUserID), "role": CurrentUser(c).Role}))
	})
	r.GET("/donor", AuthJWT(j, deny, domain.RoleDonor), func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })
	r.GET("/admin", AuthJWT(j, deny, ""), RequireView(access.Admin), func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	out := do(t, r, get("/who", ""))
	assert.Equal(t, resp.CodeUnauthorized, out.Code)
	assert.Equal(t, map[string]any{"redirect": "/login"}, out.Data)

	out = do(t, r, get("/who", "garbage"))
	assert.Equal(t, resp.CodeUnauthorized, out.Code)
	assert.Equal(t, "invalid token", out.Msg)

	tok, claims, err := j.Issue(domain.User{ID: "u1", Role: domain.RoleRecipient})
	require.NoError(t, err)

	out = do(t, r, get("/who", tok))
	assert.Equal(t, resp.CodeOK, out.Code)
	assert.Equal(t, map[string]any{"uid": "u1", "role": "recipient"}, out.Data)

	out = do(t, r, get("/who?access_token="+tok, ""))
	assert.Equal(t, resp.CodeOK, out.Code, "query token is accepted")

	out = do(t, r, get("/donor", tok))
	assert.Equal(t, resp.CodeForbidden, out.Code)

	out = do(t, r, get("/admin", tok))
	assert.Equal(t, resp.CodeForbidden, out.Code)
	assert.Equal(t, map[string]any{"redirect": "/"}, out.Data)

	require.NoError(t, deny.Revoke(ctx, claims))
	out = do(t, r, get("/who", tok))
	assert.Equal(t, resp.CodeUnauthorized, out.Code)
	assert.Equal(t, "token revoked", out.Msg)

	mr.Close()
	other, _, err := j.Issue(domain.User{ID: "u2", Role: domain.RoleDonor})
	require.NoError(t, err)
	out = do(t, r, get("/who", other))
	assert.Equal(t, resp.CodeServerError, out.Code, "denylist outage fails closed")
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0, 1, time.Minute))
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	a := get("/", "")
	a.RemoteAddr = "10.0.0.1:1234"
	b := get("/", "")
	b.RemoteAddr = "10.0.0.2:1234"

	assert.Equal(t, resp.CodeOK, do(t, r, a).Code)
	assert.Equal(t, resp.CodeOK, do(t, r, b).Code, "buckets are per client")

	a = get("/", "")
	a.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, resp.CodeTooManyRequests, do(t, r, a).Code)
}

func TestConcurrencyLimit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	r := gin.New()
	r.Use(ConcurrencyLimit(1, 20*time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(http.StatusOK, resp.OK(nil))
	})
	r.GET("/fast", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, get("/slow", ""))
	}()
	<-entered

	assert.Equal(t, resp.CodeTooManyRequests, do(t, r, get("/fast", "")).Code)
	close(release)
	wg.Wait()
	assert.Equal(t, resp.CodeOK, do(t, r, get("/fast", "")).Code)
}

func TestConcurrencyLimit_OpenFeedHoldsNoSlot(t *testing.T) {
	upgrader := websocket.Upgrader{}
	r := gin.New()
	r.Use(ConcurrencyLimit(1, 20*time.Millisecond), Timeout(30*time.Millisecond))
	r.GET("/events", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	r.GET("/fast", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	feed, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer feed.Close()

	res, err := http.Get(srv.URL + "/fast")
	require.NoError(t, err)
	defer res.Body.Close()
	var out resp.Resp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, resp.CodeOK, out.Code)

	// 超过 Timeout 之后连接仍然可写
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, feed.WriteMessage(websocket.TextMessage, []byte("ping")))
}

func TestRecoveryAndTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })
	r.GET("/slow", Timeout(10*time.Millisecond), func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	out := do(t, r, get("/boom", ""))
	assert.Equal(t, resp.CodeServerError, out.Code)
	assert.Equal(t, "internal error", out.Msg)

	out = do(t, r, get("/slow", ""))
	assert.Equal(t, resp.CodeTimeout, out.Code)
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/items/:id", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	req := get("/items/7?password=hunter2&q=soup", "")
	req.Header.Set(HeaderRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "rid-1", w.Header().Get(HeaderRequestID))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-1", fields["rid"])
	assert.Equal(t, "/items/:id", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	q := fields["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["password"])
	assert.Equal(t, []string{"soup"}, q["q"])
}

func TestIsBodyTooLarge(t *testing.T) {
	assert.True(t, IsBodyTooLarge(&http.MaxBytesError{Limit: 1}))
	assert.False(t, IsBodyTooLarge(assert.AnError))
}
