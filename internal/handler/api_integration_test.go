package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/handler"
	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type APITestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	notifier  *testutil.RecordingNotifier
	tokens    *utils.TokenIssuer
	deps      handler.Deps
	router    *gin.Engine

	user  *models.User
	admin *models.User
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())
	db := s.testDB.DB

	s.notifier = &testutil.RecordingNotifier{}
	s.tokens = utils.NewTokenIssuer("test-secret-key", time.Hour)
	v := validator.New()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewTaxonomyRepository[models.Category](db)
	genreRepo := repository.NewTaxonomyRepository[models.Genre](db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	s.deps = handler.Deps{
		Config: &config.Config{
			Environment:        "test",
			PageSize:           10,
			CORSAllowedOrigins: []string{"*"},
		},
		DB:         db,
		Auth:       service.NewAuthService(userRepo, s.notifier, s.tokens, v, service.AuthOptions{}),
		Users:      service.NewUserService(userRepo, v),
		Categories: service.NewCategoryService(categoryRepo, v),
		Genres:     service.NewGenreService(genreRepo, v),
		Titles:     service.NewTitleService(titleRepo, categoryRepo, genreRepo, v),
		Reviews:    service.NewReviewService(reviewRepo, titleRepo, v),
		Comments:   service.NewCommentService(repository.NewCommentRepository(db), reviewRepo, v),
		Metrics:    metrics.New(prometheus.NewRegistry()),
	}
	s.router = handler.NewRouter(s.deps)
}

func (s *APITestSuite) TearDownSuite() {
	s.testRedis.Teardown(s.T())
	s.testDB.Teardown(s.T())
}

func (s *APITestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.notifier.Sent = nil
	s.user = testutil.CreateUser(s.T(), s.testDB.DB, "reader", models.RoleUser)
	s.admin = testutil.CreateUser(s.T(), s.testDB.DB, "boss", models.RoleAdmin)
}

func (s *APITestSuite) do(method, path string, body any, as *models.User) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := s.tokens.Mint(as)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *APITestSuite) errorsOf(w *httptest.ResponseRecorder) map[string][]string {
	var out map[string][]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *APITestSuite) TestSignupAndTokenFlow() {
	w := s.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    "new@example.com",
		"username": "newbie",
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"email": "new@example.com", "username": "newbie"}`, w.Body.String())

	code := s.notifier.LastCode(s.T(), "new@example.com")

	for range 2 {
		w = s.do(http.MethodPost, "/api/v1/auth/token", map[string]string{
			"username":          "newbie",
			"confirmation_code": code,
		}, nil)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		s.NotEmpty(s.decode(w)["token"])
	}
}

func (s *APITestSuite) TestSignupValidation() {
	w := s.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    "not-an-email",
		"username": "me",
	}, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	errs := s.errorsOf(w)
	s.NotEmpty(errs["email"])
	s.NotEmpty(errs["username"])
}

func (s *APITestSuite) TestSignupEmptyBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["detail"])
}

func (s *APITestSuite) TestTokenErrors() {
	w := s.do(http.MethodPost, "/api/v1/auth/token", map[string]string{
		"username":          "ghost",
		"confirmation_code": "whatever",
	}, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/token", map[string]string{
		"username":          s.user.Username,
		"confirmation_code": "wrong",
	}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["confirmation_code"])
}

func (s *APITestSuite) TestInvalidBearerToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/titles", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(s.errorsOf(w)["detail"])
}

func (s *APITestSuite) TestCategoryPermissions() {
	body := map[string]string{"name": "Books", "slug": "books"}

	w := s.do(http.MethodPost, "/api/v1/categories", body, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(s.errorsOf(w)["detail"])

	w = s.do(http.MethodPost, "/api/v1/categories", body, s.user)
	s.Equal(http.StatusForbidden, w.Code)
	s.NotEmpty(s.errorsOf(w)["detail"])

	w = s.do(http.MethodPost, "/api/v1/categories", body, s.admin)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.JSONEq(`{"name": "Books", "slug": "books"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/categories", body, s.admin)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["slug"])

	w = s.do(http.MethodGet, "/api/v1/categories?search=boo", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1, s.decode(w)["count"])

	w = s.do(http.MethodDelete, "/api/v1/categories/books", nil, s.admin)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/categories/books", nil, s.admin)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestTitleLifecycle() {
	db := s.testDB.DB
	testutil.CreateCategory(s.T(), db, "Movies", "movies")
	testutil.CreateGenre(s.T(), db, "Drama", "drama")

	w := s.do(http.MethodPost, "/api/v1/titles", map[string]any{
		"name":     "Future",
		"year":     2100,
		"genre":    []string{"drama"},
		"category": "movies",
	}, s.admin)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["year"])

	w = s.do(http.MethodPost, "/api/v1/titles", map[string]any{
		"name":     "Lost",
		"year":     1999,
		"genre":    []string{"drama"},
		"category": "nope",
	}, s.admin)
	s.Equal(http.StatusNotFound, w.Code)
	s.NotEmpty(s.errorsOf(w)["category"])

	w = s.do(http.MethodPost, "/api/v1/titles", map[string]any{
		"name":     "Heat",
		"year":     1995,
		"genre":    []string{"drama"},
		"category": "movies",
	}, s.admin)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := s.decode(w)
	s.Nil(created["rating"])
	s.Equal("movies", created["category"].(map[string]any)["slug"])
	id := int(created["id"].(float64))

	w = s.do(http.MethodGet, "/api/v1/titles?genre=drama&year=1995", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1, s.decode(w)["count"])

	w = s.do(http.MethodGet, "/api/v1/titles?year=abc", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/titles/%d", id), map[string]any{"name": "Heat (1995)"}, s.admin)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("Heat (1995)", s.decode(w)["name"])

	w = s.do(http.MethodGet, "/api/v1/titles/abc", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestTitleCategoryIsOptional() {
	testutil.CreateCategory(s.T(), s.testDB.DB, "Movies", "movies")

	w := s.do(http.MethodPost, "/api/v1/titles", map[string]any{
		"name":  "Untitled",
		"year":  -1,
		"genre": []string{},
	}, s.admin)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["year"])

	w = s.do(http.MethodPost, "/api/v1/titles", map[string]any{
		"name":  "Untitled",
		"year":  2001,
		"genre": []string{},
	}, s.admin)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := s.decode(w)
	s.Nil(created["category"])
	path := fmt.Sprintf("/api/v1/titles/%d", int(created["id"].(float64)))

	w = s.do(http.MethodPatch, path, map[string]any{"category": "movies"}, s.admin)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("movies", s.decode(w)["category"].(map[string]any)["slug"])

	w = s.do(http.MethodPatch, path, map[string]any{"name": "Renamed"}, s.admin)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotNil(s.decode(w)["category"])

	w = s.do(http.MethodPatch, path, map[string]any{"category": 7}, s.admin)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["category"])

	w = s.do(http.MethodPatch, path, map[string]any{"category": nil}, s.admin)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Nil(s.decode(w)["category"])
}

func (s *APITestSuite) TestReviewFlow() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Alien", 1979, nil)
	reviews := fmt.Sprintf("/api/v1/titles/%d/reviews", title.ID)

	w := s.do(http.MethodPost, reviews, map[string]any{"text": "Scary", "score": 9}, s.user)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	review := s.decode(w)
	s.Equal("reader", review["author"])
	reviewID := int(review["id"].(float64))

	w = s.do(http.MethodPost, reviews, map[string]any{"text": "Again", "score": 1}, s.user)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["detail"])

	w = s.do(http.MethodPost, reviews, map[string]any{"text": "Again", "score": "ten"}, s.user)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(map[string][]string{"detail": {"You have already reviewed this title."}}, s.errorsOf(w))

	w = s.do(http.MethodPost, reviews, map[string]any{"text": "Typo", "score": "ten"}, s.admin)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["score"])

	w = s.do(http.MethodPost, reviews, map[string]any{"text": "Bad score", "score": 11}, s.admin)
	s.Equal(http.StatusBadRequest, w.Code)
	s.NotEmpty(s.errorsOf(w)["score"])

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", title.ID), nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(9, s.decode(w)["rating"])

	comments := fmt.Sprintf("%s/%d/comments", reviews, reviewID)
	w = s.do(http.MethodPost, comments, map[string]string{"text": "Agreed"}, s.admin)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	commentID := int(s.decode(w)["id"].(float64))

	w = s.do(http.MethodPatch, fmt.Sprintf("%s/%d", comments, commentID), map[string]string{"text": "Hijack"}, s.user)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/titles/%d", title.ID), nil, s.admin)
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("%s/%d", comments, commentID), nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestUsersMe() {
	w := s.do(http.MethodGet, "/api/v1/users/me", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/users/me", map[string]string{"role": "admin", "bio": "hi"}, s.user)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	me := s.decode(w)
	s.Equal("user", me["role"])
	s.Equal("hi", me["bio"])

	w = s.do(http.MethodDelete, "/api/v1/users/me", nil, s.user)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
}

func (s *APITestSuite) TestUserAdministration() {
	w := s.do(http.MethodGet, "/api/v1/users", nil, s.user)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/users", map[string]string{
		"username": "mod",
		"email":    "mod@example.com",
		"role":     "moderator",
	}, s.admin)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("moderator", s.decode(w)["role"])

	w = s.do(http.MethodGet, "/api/v1/users/mod", nil, s.admin)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/users/mod", nil, s.admin)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/users/mod", nil, s.admin)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestPagination() {
	for i := range 3 {
		testutil.CreateGenre(s.T(), s.testDB.DB, fmt.Sprintf("Genre %d", i), fmt.Sprintf("genre-%d", i))
	}

	w := s.do(http.MethodGet, "/api/v1/genres?page_size=2", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	first := s.decode(w)
	s.EqualValues(3, first["count"])
	s.Len(first["results"], 2)
	s.Equal("/api/v1/genres?page=2&page_size=2", first["next"])
	s.Nil(first["previous"])

	w = s.do(http.MethodGet, "/api/v1/genres?page=2&page_size=2", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	second := s.decode(w)
	s.Len(second["results"], 1)
	s.Nil(second["next"])
	s.Equal("/api/v1/genres?page_size=2", second["previous"])

	w = s.do(http.MethodGet, "/api/v1/genres?page=5", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)

	for _, page := range []string{"9223372036854775807", "1000001", "99999999999999999999"} {
		w = s.do(http.MethodGet, "/api/v1/genres?page_size=100&page="+page, nil, nil)
		s.Equal(http.StatusNotFound, w.Code, page)
	}
}

func (s *APITestSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/healthz", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "yamdb_http_requests_total")
}

func (s *APITestSuite) TestAuthRateLimit() {
	opts, err := redis.ParseURL(s.testRedis.URL)
	s.Require().NoError(err)
	client := redis.NewClient(opts)
	defer client.Close()

	deps := s.deps
	deps.Metrics = nil
	deps.RateLimiter = middleware.NewRateLimiter(client, middleware.RateLimiterConfig{
		MaxRequests: 2,
		Window:      time.Minute,
		KeyPrefix:   "auth",
	})
	router := handler.NewRouter(deps)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	s.Equal([]int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)

	// Non-auth routes are not limited.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/titles", nil))
	s.Equal(http.StatusOK, w.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
