package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"gamenews/internal/middleware"
	"gamenews/internal/storage"
	"gamenews/internal/store/memstore"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploads, err := storage.NewLocal(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	h := NewHandler(memstore.New(), uploads)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.GET("/posts", h.Post.GetPosts)
	api.GET("/posts/:id", h.Post.GetPost)
	api.GET("/posts/:id/comments", h.Comment.GetComments)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.POST("/posts", h.Post.CreatePost)
	protected.POST("/posts/:id/vote", h.Post.VotePost)
	protected.POST("/posts/:id/comments", h.Comment.CreateComment)
	protected.POST("/comments/:commentId/vote", h.Comment.VoteComment)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatalf("register: no token in response")
	}
	return token
}

func createPost(t *testing.T, r *gin.Engine, token, title string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/posts", token, map[string]string{"title": title})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: status %d body %s", w.Code, w.Body.String())
	}
	id, _ := decode(t, w)["id"].(string)
	if id == "" {
		t.Fatalf("create post: no id in response")
	}
	return id
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}
}

func TestVoteEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := registerUser(t, r, "bob")
	postID := createPost(t, r, token, "vote on me")

	// unauthenticated
	w := doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/vote", "", map[string]int{"value": 1})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// invalid value
	w = doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/vote", token, map[string]int{"value": 5})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for value 5, got %d", w.Code)
	}

	// missing target
	w = doJSON(t, r, http.MethodPost, "/api/posts/00000000-0000-0000-0000-000000000001/vote", token, map[string]int{"value": 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", w.Code)
	}

	// upvote, repeat, reverse
	for i, tc := range []struct {
		value int
		score float64
	}{
		{1, 1},
		{1, 1},
		{-1, -1},
	} {
		w = doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/vote", token, map[string]int{"value": tc.value})
		if w.Code != http.StatusOK {
			t.Fatalf("step %d: status %d body %s", i, w.Code, w.Body.String())
		}
		if got := decode(t, w)["score"]; got != tc.score {
			t.Fatalf("step %d: expected score %v, got %v", i, tc.score, got)
		}
	}
}

func TestCommentThreadEndpoint(t *testing.T) {
	r := newTestRouter(t)
	tokenA := registerUser(t, r, "carol")
	tokenB := registerUser(t, r, "dave")
	postID := createPost(t, r, tokenA, "discuss")

	// empty body
	w := doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/comments", tokenA, map[string]string{"body": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/comments", tokenA, map[string]string{"body": "first"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create root: status %d body %s", w.Code, w.Body.String())
	}
	rootID, _ := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/comments", tokenB, map[string]interface{}{
		"body": "reply", "parent_id": rootID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create reply: status %d body %s", w.Code, w.Body.String())
	}
	replyID, _ := decode(t, w)["id"].(string)

	// reply to a reply is rejected
	w = doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/comments", tokenA, map[string]interface{}{
		"body": "too deep", "parent_id": replyID,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for nested reply, got %d body %s", w.Code, w.Body.String())
	}

	// vote on the comment
	w = doJSON(t, r, http.MethodPost, "/api/comments/"+rootID+"/vote", tokenB, map[string]int{"value": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("comment vote: status %d body %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["score"]; got != float64(1) {
		t.Fatalf("expected comment score 1, got %v", got)
	}

	// assembled thread
	w = doJSON(t, r, http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get comments: status %d body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if got := body["total"]; got != float64(2) {
		t.Fatalf("expected total 2, got %v", got)
	}
	comments, _ := body["comments"].([]interface{})
	if len(comments) != 1 {
		t.Fatalf("expected 1 root, got %d", len(comments))
	}
	root, _ := comments[0].(map[string]interface{})
	if root["id"] != rootID {
		t.Fatalf("wrong root id")
	}
	if root["author_name"] != "carol" {
		t.Fatalf("expected resolved author name, got %v", root["author_name"])
	}
	replies, _ := root["replies"].([]interface{})
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}

	// post detail carries the thread too
	w = doJSON(t, r, http.MethodGet, "/api/posts/"+postID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get post: status %d", w.Code)
	}
	if got := decode(t, w)["comment_count"]; got != float64(2) {
		t.Fatalf("expected comment_count 2, got %v", got)
	}
}

func TestThreadMissingPostReturns404(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/posts/%s/comments", "00000000-0000-0000-0000-0000000000ff"), "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
