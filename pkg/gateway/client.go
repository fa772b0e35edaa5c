package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RESTClient talks to the gateway's HTTP/JSON API.
//
// The gateway may serve /api/lights with chunked transfer encoding; net/http
// de-chunks transparently, so no special handling appears here.
type RESTClient struct {
	base string
	http *http.Client
}

// NewRESTClient creates a client for the gateway at host:port.
func NewRESTClient(target string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		base: "http://" + target,
		http: &http.Client{Timeout: timeout},
	}
}

// Post sends one command to POST /api and drains the response.
func (c *RESTClient) Post(cmd Command) error {
	body, err := cmd.Encode()
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+"/api", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: POST /api: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway: POST /api: status %d", resp.StatusCode)
	}
	return nil
}

// Lights fetches the fixture inventory from GET /api/lights.
func (c *RESTClient) Lights() (map[string]Light, error) {
	resp, err := c.http.Get(c.base + "/api/lights")
	if err != nil {
		return nil, fmt.Errorf("gateway: GET /api/lights: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway: GET /api/lights: status %d", resp.StatusCode)
	}

	lights := make(map[string]Light)
	if err := json.NewDecoder(resp.Body).Decode(&lights); err != nil {
		return nil, fmt.Errorf("gateway: decoding lights: %w", err)
	}
	return lights, nil
}

// Status fetches GET /api/status, returning only success or failure; the
// load harness never inspects the body.
func (c *RESTClient) Status() error {
	resp, err := c.http.Get(c.base + "/api/status")
	if err != nil {
		return fmt.Errorf("gateway: GET /api/status: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway: GET /api/status: status %d", resp.StatusCode)
	}
	return nil
}
