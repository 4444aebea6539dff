package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/songforge/api/internal/config"
)

// MusicAPI defines the interface for the music generation provider
type MusicAPI interface {
	IsConfigured() bool
	GenerateMusic(ctx context.Context, req *GenerateMusicRequest) (string, error)
	GetRecordInfo(ctx context.Context, taskID string) (*RecordInfo, error)
	GenerateCover(ctx context.Context, taskID string) (string, error)
	GetCoverRecordInfo(ctx context.Context, taskID string) (*CoverRecordInfo, error)
	GenerateLyrics(ctx context.Context, prompt string) (string, error)
	GetTimestampedLyrics(ctx context.Context, taskID, audioID string) (json.RawMessage, error)
}

// KieClient implements MusicAPI for the KIE.ai Suno API
type KieClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	callbackURL string
}

// GenerateMusicRequest represents the request for music generation
type GenerateMusicRequest struct {
	Prompt       string `json:"prompt"`
	Style        string `json:"style,omitempty"`
	Title        string `json:"title,omitempty"`
	Model        string `json:"model,omitempty"`
	Instrumental bool   `json:"instrumental,omitempty"`
	CallBackURL  string `json:"callBackUrl,omitempty"`
}

// CoverRecordInfo represents the detail record of a cover sub-task
type CoverRecordInfo struct {
	TaskID       string   `json:"taskId"`
	ParentTaskID string   `json:"parentTaskId"`
	Images       []string `json:"images,omitempty"`
}

// kieEnvelope is the outer shape of every KIE API response
type kieEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type taskIDData struct {
	TaskID string `json:"taskId"`
}

// NewKieClient creates a new KIE API client
func NewKieClient(cfg *config.KieConfig) *KieClient {
	return &KieClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *KieClient) IsConfigured() bool {
	return c.apiKey != ""
}

// GenerateMusic starts a music generation task and returns the provider task id
func (c *KieClient) GenerateMusic(ctx context.Context, req *GenerateMusicRequest) (string, error) {
	if req.CallBackURL == "" {
		req.CallBackURL = c.callbackURL
	}
	data, err := c.post(ctx, "/generate", req)
	if err != nil {
		return "", err
	}
	var result taskIDData
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal task id: %w", err)
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("provider returned no task id")
	}
	return result.TaskID, nil
}

// GetRecordInfo retrieves the status record of a generation task. The payload
// shape has drifted across provider versions, so the raw body is kept for
// tolerant field extraction (see kie_record.go).
func (c *KieClient) GetRecordInfo(ctx context.Context, taskID string) (*RecordInfo, error) {
	endpoint := "/generate/record-info?taskId=" + url.QueryEscape(taskID)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return ParseRecordInfo(body)
}

// GenerateCover starts cover art generation for an existing music task and
// returns the cover sub-task id.
func (c *KieClient) GenerateCover(ctx context.Context, taskID string) (string, error) {
	req := map[string]string{
		"taskId":      taskID,
		"callBackUrl": c.callbackURL,
	}
	data, err := c.post(ctx, "/suno/cover/generate", req)
	if err != nil {
		return "", err
	}
	var result taskIDData
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal cover task id: %w", err)
	}
	return result.TaskID, nil
}

// GetCoverRecordInfo retrieves the detail record of a cover sub-task,
// including the parent generation task id.
func (c *KieClient) GetCoverRecordInfo(ctx context.Context, taskID string) (*CoverRecordInfo, error) {
	endpoint := "/suno/cover/record-info?taskId=" + url.QueryEscape(taskID)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var env kieEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cover record: %w", err)
	}
	var info CoverRecordInfo
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &info); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cover record data: %w", err)
		}
	}
	return &info, nil
}

// GenerateLyrics starts a lyrics generation task and returns the task id
func (c *KieClient) GenerateLyrics(ctx context.Context, prompt string) (string, error) {
	req := map[string]string{
		"prompt":      prompt,
		"callBackUrl": c.callbackURL,
	}
	data, err := c.post(ctx, "/lyrics", req)
	if err != nil {
		return "", err
	}
	var result taskIDData
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal lyrics task id: %w", err)
	}
	return result.TaskID, nil
}

// GetTimestampedLyrics fetches word-level timestamped lyrics for one track
func (c *KieClient) GetTimestampedLyrics(ctx context.Context, taskID, audioID string) (json.RawMessage, error) {
	req := map[string]string{
		"taskId":  taskID,
		"audioId": audioID,
	}
	return c.post(ctx, "/generate/get-timestamped-lyrics", req)
}

// post sends a POST request with JSON body and returns the envelope data
func (c *KieClient) post(ctx context.Context, endpoint string, body interface{}) (json.RawMessage, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	raw, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	return envelopeData(req, raw)
}

// get sends a GET request and returns the raw response body
func (c *KieClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req)
}

// doRequest executes an HTTP request and returns the response body
func (c *KieClient) doRequest(req *http.Request) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[KIE] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[KIE] ✗ %s %s request failed: %v", req.Method, req.URL.String(), err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[KIE] ✗ %s %s failed to read response: %v", req.Method, req.URL.String(), err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[KIE] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("KIE API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// envelopeData unwraps the {code, msg, data} envelope. An HTTP 2xx with a
// non-200 envelope code is still a provider-reported error.
func envelopeData(req *http.Request, raw []byte) (json.RawMessage, error) {
	var env kieEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[KIE] ✗ unmarshal error for %s %s: %v", req.Method, req.URL.String(), err)
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if env.Code != 200 {
		return nil, fmt.Errorf("KIE API error (code %d): %s", env.Code, env.Msg)
	}
	return env.Data, nil
}
