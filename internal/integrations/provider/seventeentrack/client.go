package seventeentrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.17track.net/track/v2.2"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type requestItem struct {
	Number string `json:"number"`
}

type apiResponse struct {
	Data struct {
		Accepted []provider.Payload `json:"accepted"`
		Rejected []rejectedItem     `json:"rejected"`
	} `json:"data"`
}

type rejectedItem struct {
	Number string `json:"number"`
	Error  struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Submit makes exactly one outbound call carrying a single-item payload.
// The protocol accepts arrays, but one number per call keeps per-item
// error handling trivial.
func (c *Client) Submit(ctx context.Context, op provider.Op, trackingNumber string) (provider.Outcome, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return provider.Outcome{}, errors.Wrap(err, "parse base url")
	}
	u = u.JoinPath(string(op))

	body, err := json.Marshal([]requestItem{{Number: trackingNumber}})
	if err != nil {
		return provider.Outcome{}, errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return provider.Outcome{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("17token", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return provider.Outcome{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return provider.Outcome{}, fmt.Errorf("provider http %d", resp.StatusCode)
	}

	var r apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return provider.Outcome{}, errors.Wrap(err, "decode response")
	}

	if len(r.Data.Accepted) > 0 {
		p := r.Data.Accepted[0]
		return provider.Outcome{Accepted: &p}, nil
	}
	if len(r.Data.Rejected) > 0 {
		rej := r.Data.Rejected[0]
		return provider.Outcome{Rejected: &provider.Rejection{
			Code:    provider.ClassifyCode(rej.Error.Code),
			RawCode: rej.Error.Code,
			Message: rej.Error.Message,
		}}, nil
	}

	// Both partitions empty: malformed by contract.
	return provider.Outcome{}, fmt.Errorf("provider response has no accepted or rejected items")
}
