package alignctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"alignd/pkg/types"
)

// Client is a thin HTTP client for the alignd API.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{base: base, hc: &http.Client{Timeout: timeout}}
}

func (c *Client) getJSON(path string, out any) error {
	resp, err := c.hc.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) postJSON(path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// decodeResponse surfaces the server's error payload on non-2xx statuses.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 300 {
		var apiErr types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s (status %d)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Models() (types.ModelsResponse, error) {
	var out types.ModelsResponse
	err := c.getJSON("/models", &out)
	return out, err
}

func (c *Client) Status() (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.getJSON("/status", &out)
	return out, err
}

func (c *Client) Placements() (types.PlacementsResponse, error) {
	var out types.PlacementsResponse
	err := c.getJSON("/placements", &out)
	return out, err
}

func (c *Client) Placement(modelID string) (types.Placement, error) {
	var out types.Placement
	err := c.getJSON("/placements/"+modelID, &out)
	return out, err
}

func (c *Client) Prefetch(modelID string) error {
	return c.postJSON("/models/"+modelID+"/prefetch", nil, nil)
}

func (c *Client) Enter(req types.AlignEnterRequest) (types.SessionStatus, error) {
	var out types.SessionStatus
	err := c.postJSON("/align/enter", req, &out)
	return out, err
}

func (c *Client) Transform(t types.Transform) (types.SessionStatus, error) {
	var out types.SessionStatus
	err := c.postJSON("/align/transform", types.AlignTransformRequest{Transform: t}, &out)
	return out, err
}

func (c *Client) Commit(buildingID string) (types.SessionStatus, error) {
	var out types.SessionStatus
	err := c.postJSON("/align/commit", types.AlignCommitRequest{BuildingID: buildingID}, &out)
	return out, err
}

func (c *Client) Cancel() (types.SessionStatus, error) {
	var out types.SessionStatus
	err := c.postJSON("/align/cancel", nil, &out)
	return out, err
}

// WaitAligning polls /status until the session leaves preparing or the
// deadline passes. Useful after enter, which returns before the solve.
func (c *Client) WaitAligning(deadline time.Duration) (types.SessionStatus, error) {
	end := time.Now().Add(deadline)
	for {
		st, err := c.Status()
		if err != nil {
			return types.SessionStatus{}, err
		}
		if st.Session.State != "preparing" {
			return st.Session, nil
		}
		if time.Now().After(end) {
			return st.Session, fmt.Errorf("session still preparing after %s", deadline)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
