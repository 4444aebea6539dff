package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/songforge/api/internal/auth"
	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/config"
	"github.com/songforge/api/internal/handler"
	"github.com/songforge/api/internal/media"
	"github.com/songforge/api/internal/middleware"
	"github.com/songforge/api/internal/poller"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/internal/store"
	ws "github.com/songforge/api/internal/websocket"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
}

// setupApp creates a Fiber app identical to main.go but with an
// unconfigured provider client, so provider-backed endpoints report
// SERVICE_ERROR instead of making network calls.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis on localhost; tests tolerate its absence, the rate limiter
	// fails open and the gate acknowledges even when enqueue fails
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})
	t.Cleanup(func() { redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	// Provider client without an API key → every call short-circuits
	kieClient := client.NewKieClient(&config.KieConfig{})
	fetcher := client.NewArtifactFetcher("")

	contentDir := media.NewDir(t.TempDir())

	st := store.NewRedisStore(redisClient)
	generationService := service.NewGenerationService(kieClient, st)
	coverService := service.NewCoverService(kieClient, fetcher, st, contentDir)
	lyricsService := service.NewLyricsService(kieClient)

	taskPoller := poller.New(generationService, hub, 50*time.Millisecond)
	t.Cleanup(taskPoller.StopAll)

	generateHandler := handler.NewGenerateHandler(generationService, taskPoller, validate)
	coverHandler := handler.NewCoverHandler(coverService, validate)
	lyricsHandler := handler.NewLyricsHandler(lyricsService, validate)
	callbackHandler := handler.NewCallbackHandler(asynqClient)
	audioHandler := handler.NewAudioHandler(contentDir)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": time.Now().Unix()})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"kie":  kieClient.IsConfigured(),
				"auth": true,
			},
		})
	})

	app.Post("/callback/cover", callbackHandler.Cover)

	api := app.Group("/api", authMiddleware.Authenticate())

	// Use very high rate limits so tests don't get blocked
	generate := api.Group("/generate")
	generate.Post("/", rateLimiter.GenerateLimit(10000), generateHandler.Start)
	generate.Get("/status", generateHandler.Status)
	generate.Post("/stop", generateHandler.StopPolling)

	cover := api.Group("/cover", rateLimiter.CoverLimit(10000))
	cover.Post("/generate", coverHandler.Generate)

	lyrics := api.Group("/lyrics", rateLimiter.LyricsLimit(10000))
	lyrics.Post("/generate", lyricsHandler.Generate)
	lyrics.Post("/timestamped", lyricsHandler.Timestamped)

	api.Get("/audio/:filename", audioHandler.GetFile)

	return &testApp{app: app}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "songforge-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertErrorCode checks the structured error code in the response body.
func assertErrorCode(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	result := parseJSON(t, resp)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	if errObj["code"] != expected {
		t.Errorf("expected error code %s, got %v", expected, errObj["code"])
	}
}
