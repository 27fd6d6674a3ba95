package momentgarden

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goodmorning/internal/textutil"
)

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to GET '%s' (status: %d)", e.URL, e.StatusCode)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL string
	// CommentsPath is a path template with one %s for the moment id.
	CommentsPath string
	UserAgent    string
	Cookies      []string
	Timeout      time.Duration
	HTTPClient   *http.Client
	// Now stamps the cache-busting query parameter. One value is reused for
	// every request of a client, like the web interface does.
	Now func() time.Time
}

// Client talks to the Moment Garden endpoints used by the web interface.
type Client struct {
	baseURL      string
	commentsPath string
	userAgent    string
	cookie       string
	timestamp    int64
	http         *http.Client
}

// NewClient builds a client for one garden session.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		commentsPath: opts.CommentsPath,
		userAgent:    opts.UserAgent,
		cookie:       strings.Join(opts.Cookies, "; "),
		timestamp:    now().UnixMilli(),
		http:         httpClient,
	}
}

// Moments requests one page of items, newest first. Pages start at 1. An
// empty slice means the garden has no more pages.
func (c *Client) Moments(ctx context.Context, gardenID string, page, perPage int) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/moments/more/%s/%d/%d/desc?_=%s",
		c.baseURL, gardenID, page, perPage, strconv.FormatInt(c.timestamp, 10))
	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode moments page %d: %w (body: %s)", page, err, snippet(body))
	}
	return items, nil
}

// Comments requests the comment thread of a moment and returns it as
// received.
func (c *Client) Comments(ctx context.Context, momentID string) (json.RawMessage, error) {
	endpoint := c.baseURL + fmt.Sprintf(c.commentsPath, momentID)
	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("comments for %s are not JSON (body: %s)", momentID, snippet(body))
	}
	return json.RawMessage(body), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", c.baseURL+"/moments/gardens")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	return body, nil
}

// Download streams rawURL into dest. The body goes to a temporary file in
// the destination directory that is renamed into place once complete, so an
// interrupted transfer never leaves a partial file under the final name.
// Media URLs point at a CDN and are fetched without the session cookies.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if copyErr != nil {
			return 0, fmt.Errorf("download %s: %w", rawURL, copyErr)
		}
		return 0, fmt.Errorf("close %s: %w", tmpName, closeErr)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("move download into place: %w", err)
	}
	return written, nil
}

func snippet(body []byte) string {
	return textutil.Truncate(strings.TrimSpace(string(body)), 200)
}
