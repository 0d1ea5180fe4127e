package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"taskjar/internal/database"
	"taskjar/internal/repository"
	"taskjar/internal/security"
	"taskjar/internal/service"
)

// newTestServer wires the HTTP surface against a temp SQLite database
func newTestServer(t *testing.T) (*httptest.Server, *service.AuthService, *service.FamilyService) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	parentRepo := repository.NewParentRepository(db)
	childRepo := repository.NewChildRepository(db)
	pointsRepo := repository.NewPointsRepository(db)

	tokens := security.NewTokenIssuer("test-secret", 2*time.Hour)
	authService := service.NewAuthService(parentRepo, childRepo, tokens, 5, 15*time.Minute)
	familyService := service.NewFamilyService(db, childRepo, pointsRepo)

	authHandler := NewAuthHandler(authService, nil)
	childHandler := NewChildHandler(familyService)
	middleware := NewMiddleware(tokens, security.NewRateLimiter(20, time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/kid-login/children", middleware.RateLimit(authHandler.KidLoginChildren))
	mux.HandleFunc("POST /api/kid-login", authHandler.KidLogin)
	mux.HandleFunc("GET /api/me", middleware.RequireParent(authHandler.Me))
	mux.HandleFunc("GET /api/kid/me", middleware.RequireChild(childHandler.KidProfile))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, authService, familyService
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getWithBearer(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	t.Run("creates account", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/register", map[string]interface{}{
			"username": "Morgan",
			"email":    "morgan@example.com",
			"password": "sup3rsecret",
			"kids":     []map[string]string{{"name": "Ada"}},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", resp.StatusCode)
		}

		var body struct {
			ParentID int64  `json:"parentId"`
			Token    string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.ParentID == 0 || body.Token == "" {
			t.Errorf("Expected parent ID and token, got %+v", body)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/register", map[string]interface{}{
			"username": "Morgan",
			"email":    "morgan@example.com",
			"password": "sup3rsecret",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("invalid JSON is a bad request", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/api/register", "application/json", bytes.NewReader([]byte("{not json")))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestKidLoginFlow(t *testing.T) {
	server, authService, familyService := newTestServer(t)

	parent, _, err := authService.Register("Morgan", "family@example.com", "sup3rsecret", nil)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	withPin, err := familyService.AddChild(parent.ID, service.ChildInput{Name: "Ada"})
	if err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	noPin, err := familyService.AddChild(parent.ID, service.ChildInput{Name: "Finn"})
	if err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	if err := authService.SetChildPin(parent.ID, withPin.ID, "1234"); err != nil {
		t.Fatalf("SetChildPin failed: %v", err)
	}

	t.Run("picker lists children with pin flag", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/kid-login/children?email=family@example.com")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}

		var body []struct {
			ChildID   int64  `json:"childId"`
			Name      string `json:"name"`
			HasPinSet bool   `json:"hasPinSet"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(body) != 2 {
			t.Fatalf("Expected 2 children, got %d", len(body))
		}
		if !body[0].HasPinSet || body[1].HasPinSet {
			t.Errorf("Unexpected pin flags: %+v", body)
		}
	})

	t.Run("unknown family email is not found", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/kid-login/children?email=ghost@example.com")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("login without configured pin reports no_pin", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/kid-login", map[string]interface{}{
			"childId": noPin.ID, "pin": "1234",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Reason != "no_pin" {
			t.Errorf("Expected reason no_pin, got %q", body.Reason)
		}
	})

	t.Run("wrong pin reports invalid_pin", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/kid-login", map[string]interface{}{
			"childId": withPin.ID, "pin": "0000",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Reason != "invalid_pin" {
			t.Errorf("Expected reason invalid_pin, got %q", body.Reason)
		}
	})

	t.Run("correct pin returns a token", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/kid-login", map[string]interface{}{
			"childId": withPin.ID, "pin": "1234",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Token == "" {
			t.Error("Expected a token")
		}
	})

	t.Run("parent profile endpoint returns own account", func(t *testing.T) {
		parentToken, err := authService.Login("family@example.com", "sup3rsecret")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		resp := getWithBearer(t, server.URL+"/api/me", parentToken)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.ID != parent.ID || body.Email != "family@example.com" {
			t.Errorf("Unexpected profile: %+v", body)
		}

		// a parent token is rejected on the child route
		resp = getWithBearer(t, server.URL+"/api/kid/me", parentToken)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403 on kid route, got %d", resp.StatusCode)
		}
	})

	t.Run("child profile endpoint returns own profile", func(t *testing.T) {
		childToken, err := authService.LoginChild(withPin.ID, "1234")
		if err != nil {
			t.Fatalf("LoginChild failed: %v", err)
		}

		resp := getWithBearer(t, server.URL+"/api/kid/me", childToken)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Points int    `json:"points"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.ID != withPin.ID || body.Name != "Ada" {
			t.Errorf("Unexpected profile: %+v", body)
		}

		// a child token is rejected on the parent route
		resp = getWithBearer(t, server.URL+"/api/me", childToken)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403 on parent route, got %d", resp.StatusCode)
		}
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			resp := postJSON(t, server.URL+"/api/kid-login", map[string]interface{}{
				"childId": withPin.ID, "pin": "0000",
			})
			resp.Body.Close()
		}

		resp := postJSON(t, server.URL+"/api/kid-login", map[string]interface{}{
			"childId": withPin.ID, "pin": "1234",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Reason != "locked" {
			t.Errorf("Expected reason locked, got %q", body.Reason)
		}
		if body.RetryAfterSeconds <= 0 {
			t.Errorf("Expected positive retryAfterSeconds, got %d", body.RetryAfterSeconds)
		}
	})
}

func TestKidLoginChildrenRateLimited(t *testing.T) {
	server, authService, _ := newTestServer(t)

	if _, _, err := authService.Register("Morgan", "limited@example.com", "sup3rsecret", nil); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// The test server allows 20 picker requests per minute per IP
	var last int
	for i := 0; i < 21; i++ {
		resp, err := http.Get(server.URL + "/api/kid-login/children?email=limited@example.com")
		if err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		last = resp.StatusCode
		resp.Body.Close()

		if i < 20 && last == http.StatusTooManyRequests {
			t.Fatalf("Request %d rate limited too early", i+1)
		}
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the limit is exhausted, got %d", last)
	}
}
