package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pulsefeed/internal/config"
	"pulsefeed/internal/middleware"
	"pulsefeed/internal/models"
	"pulsefeed/internal/router"
	"pulsefeed/internal/services"
	"pulsefeed/internal/storage"
	"pulsefeed/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer drives the fully wired HTTP surface against a temporary
// database.
type testServer struct {
	t      *testing.T
	engine *gin.Engine
	g      *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	g := testutil.SetupDB(t)
	cfg := config.Config{
		StoragePath:    t.TempDir(),
		PasswordSalt:   "test_salt",
		HashIterations: 16,
	}
	images, err := storage.NewImageStore(cfg.StoragePath)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(gin.Recovery())
	router.RegisterRoutes(engine, g, images, cfg)

	return &testServer{t: t, engine: engine, g: g}
}

func (s *testServer) do(method, target string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	s.t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(target string, form url.Values, token string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, target, strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", token)
}

func (s *testServer) putJSON(target, body, token string) *httptest.ResponseRecorder {
	return s.do(http.MethodPut, target, strings.NewReader(body), "application/json", token)
}

// signUpAndIn registers a fresh user and returns their token.
func (s *testServer) signUpAndIn(login string) string {
	s.t.Helper()

	w := s.postForm("/sign_up", url.Values{
		"first_name": {"Test"},
		"last_name":  {"User"},
		"login":      {login},
		"password":   {"secret"},
	}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.postForm("/sign_in", url.Values{"login": {login}, "password": {"secret"}}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var result services.LoginResult
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(s.t, result.Token)
	return result.Token
}

// adminToken seeds an admin user with a live token, bypassing sign-in.
func (s *testServer) adminToken() string {
	s.t.Helper()

	admin := testutil.CreateUser(s.t, s.g, models.RoleAdmin)
	token := fmt.Sprintf("admin-token-%d", admin.ID)
	testutil.CreateToken(s.t, s.g, admin.ID, token)
	return token
}

func (s *testServer) createPost(text, adminToken string) uint {
	s.t.Helper()

	body, contentType := postBody(s.t, text)
	w := s.do(http.MethodPost, "/posts", body, contentType, adminToken)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var post models.Post
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &post))
	require.NotZero(s.t, post.ID)
	return post.ID
}

func postBody(t *testing.T, text string) (io.Reader, string) {
	t.Helper()

	img := &bytes.Buffer{}
	require.NoError(t, png.Encode(img, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("text", text))
	fw, err := w.CreateFormFile("image", "image.png")
	require.NoError(t, err)
	_, err = io.Copy(fw, img)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

type feedItem struct {
	models.Post
	Rate *models.ReactionKind `json:"rate"`
}

type feedPage struct {
	Items         []feedItem `json:"items"`
	TotalQuantity int64      `json:"total_quantity"`
}

func (s *testServer) feed(target, token string) feedPage {
	s.t.Helper()

	w := s.do(http.MethodGet, target, nil, "", token)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var page feedPage
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &page))
	return page
}

func TestSignUpSignInSignOut(t *testing.T) {
	s := newTestServer(t)

	token := s.signUpAndIn("eva")

	// The sign-in response sets the token as an http-only cookie.
	w := s.postForm("/sign_in", url.Values{"login": {"eva"}, "password": {"secret"}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.AuthCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// The first token was replaced by the second sign-in.
	w = s.do(http.MethodGet, "/posts", nil, "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	token = cookies[0].Value
	w = s.do(http.MethodPost, "/sign_out", nil, "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The token is gone, so the same call is now a guest call.
	w = s.do(http.MethodPost, "/sign_out", nil, "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.signUpAndIn("eva")

	for name, form := range map[string]url.Values{
		"wrong password": {"login": {"eva"}, "password": {"wrong"}},
		"unknown login":  {"login": {"nobody"}, "password": {"secret"}},
	} {
		t.Run(name, func(t *testing.T) {
			w := s.postForm("/sign_in", form, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid login or password")
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		w := s.postForm("/sign_in", url.Values{"login": {"eva"}}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSignUpDuplicateLoginRollsBack(t *testing.T) {
	s := newTestServer(t)
	s.signUpAndIn("eva")

	var before int64
	require.NoError(t, s.g.Model(&models.User{}).Count(&before).Error)

	w := s.postForm("/sign_up", url.Values{
		"first_name": {"Other"},
		"last_name":  {"Person"},
		"login":      {"eva"},
		"password":   {"different"},
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "login already taken")

	// The user row created before the credential failure was rolled back
	// with the rest of the request transaction.
	var after int64
	require.NoError(t, s.g.Model(&models.User{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestSignUpForbiddenForSignedIn(t *testing.T) {
	s := newTestServer(t)
	token := s.signUpAndIn("eva")

	w := s.postForm("/sign_up", url.Values{
		"first_name": {"Again"},
		"last_name":  {"Again"},
		"login":      {"again"},
		"password":   {"secret"},
	}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	user := s.signUpAndIn("eva")

	postID := s.createPost("fresh <script>alert(1)</script> news", admin)
	target := fmt.Sprintf("/posts/%d/rate", postID)

	t.Run("creation is admin only", func(t *testing.T) {
		body, contentType := postBody(t, "nope")
		w := s.do(http.MethodPost, "/posts", body, contentType, user)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("post text is sanitized", func(t *testing.T) {
		page := s.feed("/posts", user)
		require.Len(t, page.Items, 1)
		assert.NotContains(t, page.Items[0].Text, "<script>")
		assert.Contains(t, page.Items[0].Text, "fresh")
	})

	t.Run("guests cannot read the feed", func(t *testing.T) {
		w := s.do(http.MethodGet, "/posts", nil, "", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("like updates counters and annotation", func(t *testing.T) {
		w := s.putJSON(target, `{"rate":"like"}`, user)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		page := s.feed("/posts", user)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 1, page.Items[0].LikesQuantity)
		assert.Equal(t, 0, page.Items[0].DislikesQuantity)
		require.NotNil(t, page.Items[0].Rate)
		assert.Equal(t, models.ReactionLike, *page.Items[0].Rate)
	})

	t.Run("rating is user only", func(t *testing.T) {
		w := s.putJSON(target, `{"rate":"like"}`, admin)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("null rate clears the reaction", func(t *testing.T) {
		w := s.putJSON(target, `{"rate":null}`, user)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		page := s.feed("/posts", user)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 0, page.Items[0].LikesQuantity)
		assert.Nil(t, page.Items[0].Rate)
	})

	t.Run("invalid rate value", func(t *testing.T) {
		w := s.putJSON(target, `{"rate":"love"}`, user)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown post id", func(t *testing.T) {
		w := s.putJSON("/posts/99999/rate", `{"rate":"like"}`, user)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = s.putJSON("/posts/not-a-number/rate", `{"rate":"like"}`, user)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("deletion is admin only", func(t *testing.T) {
		w := s.do(http.MethodDelete, fmt.Sprintf("/posts/%d", postID), nil, "", user)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do(http.MethodDelete, fmt.Sprintf("/posts/%d", postID), nil, "", admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		page := s.feed("/posts", user)
		assert.Empty(t, page.Items)
		assert.Zero(t, page.TotalQuantity)

		w = s.putJSON(target, `{"rate":"like"}`, user)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = s.do(http.MethodDelete, fmt.Sprintf("/posts/%d", postID), nil, "", admin)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFeedPaginationAndValidation(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	user := s.signUpAndIn("eva")

	for i := range 7 {
		s.createPost(fmt.Sprintf("post %d", i+1), admin)
	}

	page := s.feed("/posts?page=2&per_page=5", user)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 7, page.TotalQuantity)

	page = s.feed("/posts", user)
	assert.Len(t, page.Items, 5)

	t.Run("invalid query parameters carry field detail", func(t *testing.T) {
		w := s.do(http.MethodGet, "/posts?page=0", nil, "", user)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var failure struct {
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
		assert.Equal(t, "gte=1", failure.Fields["page"])
	})

	t.Run("unknown order value", func(t *testing.T) {
		w := s.do(http.MethodGet, "/posts?order=oldest", nil, "", user)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
