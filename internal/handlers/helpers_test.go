package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"distributor/internal/events"
	"distributor/internal/handlers"
	"distributor/internal/locker"
	"distributor/internal/models"
	"distributor/internal/redis"
	"distributor/internal/repository"
	"distributor/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupRouter wires the full API over in-memory stores.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := handlers.RegisterValidators(); err != nil {
		t.Fatalf("register validators: %v", err)
	}
	logger := zap.NewNop()

	products := repository.NewMemoryProductRepository(models.DefaultProducts()...)
	orderRepo := repository.NewMemoryOrderRepository(products)
	userRepo := repository.NewMemoryUserRepository()

	userService := services.NewUserService(userRepo, redis.NewMemoryStore(), "test-secret", time.Hour, logger)
	orderService := services.NewOrderService(orderRepo, products, userRepo, locker.NewKeyedMutex(), events.NewLogPublisher(logger), logger)
	productService := services.NewProductService(products)
	dashboardService := services.NewDashboardService(orderService, productService)

	h := handlers.NewAPIHandler(userService, orderService, productService, dashboardService, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	handlers.SetupRoutes(r, h, userService)
	return r
}

func doRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// signup registers a user and logs in through the form endpoint, returning the bearer token.
func signup(t *testing.T, r http.Handler, username string, role models.Role) string {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret",
		"role":     string(role),
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", username, w.Code, w.Body.String())
	}

	form := url.Values{"username": {username}, "password": {"secret"}}
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, lw.Code, lw.Body.String())
	}
	token, _ := parseResponse(lw)["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %s", username, lw.Body.String())
	}
	return token
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
