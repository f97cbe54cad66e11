package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskey/taskey-api/internal/constants"
	"github.com/taskey/taskey-api/internal/journey"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/repository"
	"github.com/taskey/taskey-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type apiTestEnv struct {
	t      *testing.T
	db     *gorm.DB
	clock  *testClock
	router *gin.Engine
	users  int
}

func newAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(models.All()...))

	clock := &testClock{now: baseTime}
	hub := realtime.NewHub(4, nil)
	core := services.NewCore(repository.NewStore(db), services.Options{Clock: clock.Now, Hub: hub})
	threads := services.NewThreadService(core)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, Services{
		Auth:            services.NewAuthService(repository.NewUserRepository(db), repository.NewCustomerRepository(db)),
		Tasks:           services.NewTaskService(core),
		Offers:          services.NewOfferService(core, threads),
		Arrival:         services.NewArrivalService(core, threads, 30*time.Minute, 10*time.Millisecond),
		Completion:      services.NewCompletionService(core),
		Helpers:         services.NewHelperService(core, journey.DefaultThresholds()),
		Recommendations: services.NewRecommendationService(core, nil, time.Second),
		Threads:         threads,
		Hub:             hub,
	})

	return &apiTestEnv{
		t:      t,
		db:     db,
		clock:  clock,
		router: r,
	}
}

// apiClient sends requests through the router, carrying the session cookie
// between calls like a browser.
type apiClient struct {
	env     *apiTestEnv
	userID  uint64
	cookies []*http.Cookie
}

func (e *apiTestEnv) anonymous() *apiClient {
	return &apiClient{env: e}
}

// login signs up a fresh user and logs them in as a customer.
func (e *apiTestEnv) login() *apiClient {
	e.t.Helper()
	e.users++
	username := fmt.Sprintf("user%d", e.users)

	c := e.anonymous()
	w := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username":  username,
		"password":  "supersecret",
		"full_name": "User " + username,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": "supersecret",
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	var user struct {
		ID uint64 `json:"id"`
	}
	decode(e.t, w, &user)
	c.userID = user.ID
	return c
}

// helper logs in a fresh user, onboards them and switches to the helper role.
func (e *apiTestEnv) helper() *apiClient {
	e.t.Helper()
	c := e.login()
	w := c.do(http.MethodPost, "/api/helpers/me", map[string]interface{}{
		"full_name":          "Helper",
		"service_categories": []string{"furniture"},
		"service_areas":      []string{"Almaty"},
		"about_me":           "Ten years of furniture assembly",
		"is_available":       true,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	c.switchRole(models.RoleHelper)
	return c
}

func (c *apiClient) switchRole(role models.Role) {
	c.env.t.Helper()
	w := c.do(http.MethodPost, "/api/session/role", map[string]string{"role": string(role)})
	require.Equal(c.env.t, http.StatusOK, w.Code, w.Body.String())
}

func (c *apiClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.env.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.env.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.env.router.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type taskBody struct {
	ID               uint64   `json:"id"`
	Reference        string   `json:"reference"`
	Status           string   `json:"status"`
	ExactLocation    string   `json:"exact_location"`
	AssignedHelperID *uint64  `json:"assigned_helper_id"`
	MissingItems     []string `json:"missing_items"`
}

type offerBody struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// createTask posts a task as customer and returns it.
func (e *apiTestEnv) createTask(customer *apiClient, description string) taskBody {
	e.t.Helper()
	w := customer.do(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":          "Assemble wardrobe",
		"description":    description,
		"category":       "furniture",
		"area":           "Almaty",
		"exact_location": "Abay ave 10, apt 5",
		"budget_min":     20000,
		"budget_max":     30000,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var task taskBody
	decode(e.t, w, &task)
	return task
}

// submitOffer posts an offer arriving one hour after baseTime.
func (e *apiTestEnv) submitOffer(helper *apiClient, taskID uint64) offerBody {
	e.t.Helper()
	w := helper.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/offers", taskID), map[string]interface{}{
		"price":   25000,
		"eta_at":  baseTime.Add(time.Hour),
		"message": "Available and experienced",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var offer offerBody
	decode(e.t, w, &offer)
	return offer
}

// assigned returns a task assigned to a fresh helper.
func (e *apiTestEnv) assigned(description string) (taskBody, *apiClient, *apiClient) {
	e.t.Helper()
	customer := e.login()
	helper := e.helper()
	task := e.createTask(customer, description)
	offer := e.submitOffer(helper, task.ID)

	w := customer.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/offers/%d/accept", task.ID, offer.ID), nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return task, customer, helper
}

// active returns an ACTIVE task: the helper checked in at the ETA and the
// customer confirmed.
func (e *apiTestEnv) active(description string) (taskBody, *apiClient, *apiClient) {
	e.t.Helper()
	task, customer, helper := e.assigned(description)
	e.clock.Set(baseTime.Add(time.Hour))

	w := helper.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/arrival/check-in", task.ID), nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	w = customer.do(http.MethodPost, fmt.Sprintf("/api/tasks/%d/arrival/confirm", task.ID), nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return task, customer, helper
}
