package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/services"
	"github.com/yukikurage/todo-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	store  repository.Store
	router *gin.Engine
}

func setupTestEnv(t *testing.T, authRateLimit int) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	store := repository.NewStore(db)
	// cheap parameters keep the suite fast
	hasher := &utils.Argon2Hasher{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

	router := NewRouter(RouterConfig{
		AuthService:   services.NewAuthService(store, hasher),
		TaskService:   services.NewTaskService(store),
		SessionStore:  cookie.NewStore([]byte("test-secret")),
		Logger:        zap.NewNop(),
		AuthRateLimit: authRateLimit,
	})

	return testEnv{db: db, store: store, router: router}
}

// client replays the session cookie like a browser would
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func (env testEnv) newClient(t *testing.T) *client {
	return &client{t: t, router: env.router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var req *http.Request
	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		default:
			var err error
			raw, err = json.Marshal(b)
			require.NoError(c.t, err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) hasSession() bool {
	return len(c.cookies) > 0
}

// signup creates an account and leaves the client logged in as it
func (c *client) signup(username, password string) map[string]any {
	c.t.Helper()

	w := c.do(http.MethodPost, "/signup", map[string]string{
		"username":     username,
		"display_name": username,
		"password":     password,
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(c.t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
