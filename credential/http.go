package credential

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxTokenResponseBytes = 1 << 20 // 1 MiB
)

// HTTPDoer is the minimal HTTP client surface token endpoints are called
// through.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func decodeTokenResponse(res *http.Response, out any) error {
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxTokenResponseBytes+1))
	if err != nil {
		return fmt.Errorf("credential: read token response: %w", err)
	}
	if int64(len(body)) > maxTokenResponseBytes {
		return fmt.Errorf("credential: token response exceeds %d bytes", maxTokenResponseBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("credential: token endpoint returned status %d", res.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("credential: decode token response: %w", err)
	}
	return nil
}
