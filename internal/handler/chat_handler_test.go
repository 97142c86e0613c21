package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/presence"
	"github.com/Deepakk2104/Zync/internal/service"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := store.NewMemory()
	logger := zap.NewNop()
	dir := directory.NewDirectory(m, logger)
	svc := service.NewChatService(
		m,
		presence.NewTracker(m, logger),
		typing.NewCoordinator(m, logger),
		dir,
		logger,
	)
	h := NewChatHandler(svc, dir)

	router := gin.New()
	router.POST("/sign-in", h.SignIn)
	router.GET("/users", h.GetAllUsers)
	router.POST("/groups", h.CreateGroup)
	router.POST("/send-direct", h.SendDirect)
	router.POST("/send-group", h.SendGroup)
	router.GET("/direct/:peerId/messages", h.GetDirectMessages)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignInEndpoint(t *testing.T) {
	router := newTestRouter(t)

	t.Run("requires uid", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/sign-in", `{"name":"Alice"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upserts and lists the user", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/sign-in", `{"uid":"alice","name":"Alice"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/users?userId=bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Users []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"users"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Users, 1)
		assert.Equal(t, "alice", resp.Users[0].ID)
		assert.Equal(t, "Alice", resp.Users[0].Name)
	})
}

func TestCreateGroupEndpoint(t *testing.T) {
	router := newTestRouter(t)

	t.Run("blank name is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/groups", `{"uid":"alice","name":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("creates and returns the group id", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/groups", `{"uid":"alice","name":"Team","memberIds":["bob"]}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			GroupID string `json:"groupId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.GroupID)
	})
}

func TestSendEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("empty direct message is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/send-direct", `{"uid":"alice","peerId":"bob","text":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("direct send then read back", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/send-direct", `{"uid":"alice","peerId":"bob","text":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/direct/alice/messages?userId=bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Messages []struct {
				Text     string `json:"text"`
				SenderID string `json:"senderId"`
				Seen     bool   `json:"seen"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Messages, 1)
		assert.Equal(t, "hello", resp.Messages[0].Text)
		assert.Equal(t, "alice", resp.Messages[0].SenderID)
		assert.False(t, resp.Messages[0].Seen)
	})

	t.Run("non-member group send is a 403", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/groups", `{"uid":"alice","name":"Team"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created struct {
			GroupID string `json:"groupId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = doJSON(t, router, http.MethodPost, "/send-group",
			`{"uid":"mallory","groupId":"`+created.GroupID+`","text":"hi"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing group is a 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/send-group", `{"uid":"alice","groupId":"nope","text":"hi"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
