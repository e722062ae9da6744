// API service for making raw HTTP requests to the Bookhive catalog
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// APIService provides methods for making raw HTTP requests to the catalog.
// The debug `api` commands are built on it.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewAPIService creates a new API service instance.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = bookhiveBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// SetAuthToken attaches a bearer token to every subsequent request that does
// not already carry an Authorization header.
func (a *APIService) SetAuthToken(token string) {
	a.authToken = token
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Do performs an arbitrary HTTP request and returns the raw response.
//
// path may be relative to the service base URL or a full http(s) URL, which
// lets captured curl requests replay unchanged.
func (a *APIService) Do(ctx context.Context, method, path string, data []byte, headers map[string]string) (*APIResponse, error) {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = a.baseURL + path
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if a.authToken != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+a.authToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data, map[string]string{"Content-Type": "application/json"})
}

// UploadJSON uploads JSON data to the specified path.
func (a *APIService) UploadJSON(ctx context.Context, path string, jsonData []byte) (*APIResponse, error) {
	return a.Post(ctx, path, jsonData)
}

// Replay executes a request captured from a curl command.
func (a *APIService) Replay(ctx context.Context, creq *shared.CurlRequest) (*APIResponse, error) {
	if creq == nil {
		return nil, fmt.Errorf("%w: curl request cannot be nil", shared.ErrInvalidInput)
	}

	headers := make(map[string]string, len(creq.Headers)+1)
	for key, value := range creq.Headers {
		headers[key] = value
	}
	if creq.Cookie != "" {
		headers["Cookie"] = creq.Cookie
	}

	return a.Do(ctx, creq.Method, creq.URL, nil, headers)
}
