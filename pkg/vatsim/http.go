package vatsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "vatsim-scope/1.0"

// requester is the HTTP plumbing shared by Client and RESTClient.
type requester struct {
	httpClient *http.Client
	userAgent  string
}

func newRequester(httpClient *http.Client, userAgent string) requester {
	if httpClient == nil {
		// No Timeout: cancellation is left to the transport and the caller's context.
		httpClient = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return requester{httpClient: httpClient, userAgent: userAgent}
}

// get issues a GET and returns the response. The caller closes the body.
func (r requester) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("vatsim: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vatsim: request %s: %w", url, err)
	}
	return resp, nil
}

// getJSON fetches url and decodes the body into dest. Any status of 400 or
// above fails with a FetchFailedError.
func (r requester) getJSON(ctx context.Context, url string, dest any) error {
	resp, err := r.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &FetchFailedError{URL: url, StatusCode: resp.StatusCode}
	}

	return decodeBody(resp, url, dest)
}

func decodeBody(resp *http.Response, url string, dest any) error {
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &MalformedResponseError{URL: url, Err: err}
	}
	return nil
}
