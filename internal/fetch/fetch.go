// Package fetch downloads the file linked from a web page: the page is
// fetched, the first element matching a CSS selector supplies the link, and
// the link target is saved to disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultUserAgent is sent with every request; some hosts refuse clients
// that do not look like a browser.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:106.0) Gecko/20100101 Firefox/106.0"

// ErrNoMatch is returned when the selector matches nothing usable.
var ErrNoMatch = errors.New("no matching link")

// Fetcher performs page and file requests.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// New returns a Fetcher with the given request timeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, UserAgent: DefaultUserAgent}
}

// FindLink loads pageURL and returns the absolute link of the first element
// matching selector. The href attribute is used, or src when there is none.
func (f *Fetcher) FindLink(ctx context.Context, pageURL, selector string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" {
		return "", fmt.Errorf("invalid page url %q", pageURL)
	}
	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}
	// a <base href> in the page overrides the page url for relative links
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if parsed, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = parsed
		}
	}

	var link string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value := strings.TrimSpace(s.AttrOr("href", ""))
		if value == "" {
			value = strings.TrimSpace(s.AttrOr("src", ""))
		}
		link = value
		return link == ""
	})
	if link == "" {
		return "", fmt.Errorf("%q on %s: %w", selector, pageURL, ErrNoMatch)
	}
	resolved, err := base.Parse(link)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", link, err)
	}
	return resolved.String(), nil
}

// Download saves rawURL to dest, following redirects, and returns the
// number of bytes written. dest is replaced only after the whole body has
// arrived.
func (f *Fetcher) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("move download into place: %w", err)
	}
	return written, nil
}

// Run finds the link on pageURL and downloads it to dest.
func (f *Fetcher) Run(ctx context.Context, pageURL, selector, dest string) (string, int64, error) {
	link, err := f.FindLink(ctx, pageURL, selector)
	if err != nil {
		return "", 0, err
	}
	n, err := f.Download(ctx, link, dest)
	return link, n, err
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to GET '%s' (status: %d)", rawURL, resp.StatusCode)
	}
	return resp, nil
}
