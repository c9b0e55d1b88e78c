package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type apiClient struct {
	platform   string
	httpClient *http.Client
	log        *zap.Logger
}

type response struct {
	header http.Header
}

// do sends a JSON request and decodes a JSON answer into out (when non-nil).
func (c *apiClient) do(ctx context.Context, method, url string, headers map[string]string, body, out any) (*response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unavailable: %v", ErrUpstream, c.platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("ad platform request failed",
			zap.String("platform", c.platform),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Platform: c.platform, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: decode %s response: %v", ErrUpstream, c.platform, err)
		}
	}
	return &response{header: resp.Header}, nil
}

// number accepts JSON numbers and numeric strings, as platform APIs use both.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

func (n number) int64() int64 { return int64(n) }
