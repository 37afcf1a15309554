package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/desertthunder/snx/internal/fetch"
)

// APIService sends raw requests through the executor for ad-hoc exploration of the API.
type APIService struct {
	doer fetch.Doer
}

// NewAPIService creates a new API service over doer.
func NewAPIService(doer fetch.Doer) *APIService {
	return &APIService{doer: doer}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Attempts   int
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.send(ctx, fetch.Get(path))
}

// Post performs a POST request with the given JSON data and returns the raw response.
// Empty data sends no body.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req := fetch.Request{Method: http.MethodPost, Path: path}
	if len(data) > 0 {
		req.Body = json.RawMessage(data)
	}
	return a.send(ctx, req)
}

func (a *APIService) send(ctx context.Context, req fetch.Request) (*APIResponse, error) {
	resp, err := a.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
		Attempts:   resp.Attempts,
	}

	var jsonData any
	if err := json.Unmarshal(resp.Body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
