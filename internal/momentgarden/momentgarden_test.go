package momentgarden_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"goodmorning/internal/momentgarden"
	"goodmorning/internal/testsupport"
)

// fakeGarden serves a garden listing, comments and media.
type fakeGarden struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	pages    map[int][]map[string]any
	media    map[string]string
	requests []string
	headers  http.Header
}

func newFakeGarden(t *testing.T) *fakeGarden {
	t.Helper()
	g := &fakeGarden{t: t, pages: map[int][]map[string]any{}, media: map[string]string{}}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGarden) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, r.URL.Path)
	switch {
	case strings.HasPrefix(r.URL.Path, "/moments/more/"):
		g.headers = r.Header.Clone()
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/moments/more/"), "/")
		page, _ := strconv.Atoi(parts[1])
		items := g.pages[page]
		if items == nil {
			items = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(items)
	case strings.HasPrefix(r.URL.Path, "/comments/list/"):
		fmt.Fprintf(w, `[{"comment": "so cute", "moment_id": %q}]`, strings.TrimPrefix(r.URL.Path, "/comments/list/"))
	default:
		body, ok := g.media[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}
}

func (g *fakeGarden) requestCount(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (g *fakeGarden) client() *momentgarden.Client {
	return momentgarden.NewClient(momentgarden.ClientOptions{
		BaseURL:      g.srv.URL,
		CommentsPath: "/comments/list/%s",
		UserAgent:    "test-agent",
		Cookies:      []string{"CAKEPHP=abc", "CakeCookie[Auth][User]=def"},
		Now:          func() time.Time { return time.UnixMilli(1700000000000) },
	})
}

// 2021-01-15 UTC
const stamp = "1610712000"

func imageItem(g *fakeGarden, id, name string) map[string]any {
	g.media["/moments-full/"+name] = "image " + id
	return map[string]any{
		"id": id, "type": "2", "path": g.srv.URL + "/moments-large/" + name,
		"meta": nil, "comment_cnt": 0, "unix_timestamp": stamp,
	}
}

func TestClientSendsSessionHeaders(t *testing.T) {
	g := newFakeGarden(t)
	g.pages[1] = []map[string]any{{"id": "1", "type": "1"}}

	items, err := g.client().Moments(context.Background(), "12345", 1, 50)
	if err != nil {
		t.Fatalf("Moments: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if got := g.requests[0]; got != "/moments/more/12345/1/50/desc" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := g.headers.Get("Cookie"); got != "CAKEPHP=abc; CakeCookie[Auth][User]=def" {
		t.Fatalf("unexpected cookie header %q", got)
	}
	if got := g.headers.Get("X-Requested-With"); got != "XMLHttpRequest" {
		t.Fatalf("missing XHR header, got %q", got)
	}
	if got := g.headers.Get("User-Agent"); got != "test-agent" {
		t.Fatalf("unexpected user agent %q", got)
	}
}

func TestClientRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "login required", http.StatusForbidden)
	}))
	defer srv.Close()
	client := momentgarden.NewClient(momentgarden.ClientOptions{BaseURL: srv.URL})
	_, err := client.Moments(context.Background(), "1", 1, 50)
	var statusErr *momentgarden.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
}

func TestClientTruncatesBodyOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()
	client := momentgarden.NewClient(momentgarden.ClientOptions{BaseURL: srv.URL, CommentsPath: "/comments/%s"})

	_, err := client.Comments(context.Background(), "7")
	if err == nil {
		t.Fatal("expected error for non-JSON comments")
	}
	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("error message is not valid UTF-8: %q", msg)
	}
	if strings.Contains(msg, body) || !strings.Contains(msg, "…") {
		t.Fatalf("expected truncated body in %q", msg)
	}
}

func TestMediaURLs(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []string
		wantErr string
	}{
		{
			name: "text",
			raw:  `{"id": "1", "type": "1"}`,
		},
		{
			name: "image at full resolution",
			raw:  `{"id": "2", "type": 2, "path": "https://s3.amazonaws.com/moments-large/9212055_abc.JPG"}`,
			want: []string{"https://s3.amazonaws.com/moments-full/9212055_abc.JPG"},
		},
		{
			name: "montage",
			raw:  `{"id": "3", "type": "2", "path": "https://cdn/moments-large/main.jpg", "meta": {"montage": "a.jpg,b.jpg"}}`,
			want: []string{"https://cdn/moments-full/main.jpg", "https://cdn/moments-full/a.jpg", "https://cdn/moments-full/b.jpg"},
		},
		{
			name: "video prefers hd",
			raw:  `{"id": "4", "type": "4", "meta": {"video_path": "https://cdn/v.mp4", "video_path_hd": "https://cdn/v_hd.mp4"}}`,
			want: []string{"https://cdn/v_hd.mp4"},
		},
		{
			name: "video fallback",
			raw:  `{"id": "5", "type": "4", "meta": {"video_path": "https://cdn/v.mp4"}}`,
			want: []string{"https://cdn/v.mp4"},
		},
		{
			name:    "video without urls",
			raw:     `{"id": "6", "type": "4", "meta": null}`,
			wantErr: "video_path_hd",
		},
		{
			name:    "unknown type",
			raw:     `{"id": "7", "type": "3"}`,
			wantErr: "unknown item type",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := momentgarden.ParseMoment([]byte(tc.raw))
			if err != nil {
				t.Fatalf("ParseMoment: %v", err)
			}
			got, err := m.MediaURLs()
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MediaURLs: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected urls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutputNameUsesUTCDate(t *testing.T) {
	m, err := momentgarden.ParseMoment([]byte(`{"id": 9, "unix_timestamp": 1610755199}`))
	if err != nil {
		t.Fatalf("ParseMoment: %v", err)
	}
	date, err := m.Date()
	if err != nil {
		t.Fatalf("Date: %v", err)
	}
	if got := momentgarden.OutputName(date, "https://cdn/moments-full/x.JPG?sig=1"); got != "2021-01-15_x.JPG" {
		t.Fatalf("unexpected output name %q", got)
	}
	if got := momentgarden.OutputName(date, "https://cdn/moments-full/a%3Ab%3F.JPG"); got != "2021-01-15_a-b.JPG" {
		t.Fatalf("unsafe characters should be replaced, got %q", got)
	}
}

func TestSyncDownloadsAndIsIdempotent(t *testing.T) {
	g := newFakeGarden(t)
	g.media["/video/clip_hd.mp4"] = "video"
	g.pages[1] = []map[string]any{
		imageItem(g, "100", "a.JPG"),
		{"id": "101", "type": "4", "meta": map[string]any{"video_path_hd": g.srv.URL + "/video/clip_hd.mp4"}, "comment_cnt": "0", "unix_timestamp": stamp},
		{"id": "102", "type": "1", "comment_cnt": 2, "unix_timestamp": stamp},
	}
	root := t.TempDir()
	garden := momentgarden.Garden{Name: "Kid", GardenID: "12345", Cookies: []string{"c=1"}}
	var out bytes.Buffer
	syncer := momentgarden.NewSyncer(g.client(), momentgarden.Options{PerPage: 50}, nil, &out, nil)

	reports, err := syncer.Sync(context.Background(), root, []momentgarden.Garden{garden})
	if err != nil {
		t.Fatalf("Sync: %v\n%s", err, out.String())
	}
	first := reports[0]
	if first.Metadata.New != 3 || first.Metadata.Comments != 1 || first.Downloads.Downloaded != 2 {
		t.Fatalf("unexpected first report: %+v", first)
	}
	for _, path := range []string{
		filepath.Join(root, "Kid", "metadata", "100.json"),
		filepath.Join(root, "Kid", "metadata", "comments", "102.json"),
		filepath.Join(root, "Kid", "image", "2021-01-15_a.JPG"),
		filepath.Join(root, "Kid", "video", "2021-01-15_clip_hd.mp4"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "Kid", "metadata", "comments", "100.json")); !os.IsNotExist(err) {
		t.Fatalf("comments must only be cached for moments with comments, got %v", err)
	}

	mediaBefore := g.requestCount("/moments-full/") + g.requestCount("/video/")
	commentsBefore := g.requestCount("/comments/")
	reports, err = syncer.Sync(context.Background(), root, []momentgarden.Garden{garden})
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	second := reports[0]
	if second.Metadata.New != 0 || second.Downloads.Downloaded != 0 || second.Downloads.Skipped != 2 {
		t.Fatalf("expected nothing new on second run, got %+v", second)
	}
	if got := g.requestCount("/moments-full/") + g.requestCount("/video/"); got != mediaBefore {
		t.Fatalf("media requested again: %d -> %d", mediaBefore, got)
	}
	if got := g.requestCount("/comments/"); got != commentsBefore {
		t.Fatalf("comments requested again: %d -> %d", commentsBefore, got)
	}
}

func TestSyncMetadataStopsAfterTwoStalePages(t *testing.T) {
	g := newFakeGarden(t)
	for page := 1; page <= 3; page++ {
		g.pages[page] = []map[string]any{{"id": strconv.Itoa(page), "type": "1", "unix_timestamp": stamp}}
	}
	cache := momentgarden.Cache{Dir: t.TempDir()}
	garden := momentgarden.Garden{Name: "Kid", GardenID: "1"}

	full := momentgarden.NewSyncer(g.client(), momentgarden.Options{Full: true}, nil, nil, nil)
	stats, err := full.SyncMetadata(context.Background(), garden, cache)
	if err != nil {
		t.Fatalf("SyncMetadata: %v", err)
	}
	if stats.Pages != 4 || stats.New != 3 {
		t.Fatalf("full sync should read until the empty page: %+v", stats)
	}

	incremental := momentgarden.NewSyncer(g.client(), momentgarden.Options{}, nil, nil, nil)
	stats, err = incremental.SyncMetadata(context.Background(), garden, cache)
	if err != nil {
		t.Fatalf("SyncMetadata: %v", err)
	}
	if stats.Pages != 2 || stats.New != 0 {
		t.Fatalf("incremental sync should stop after two stale pages: %+v", stats)
	}
}

func TestDownloadMediaRespectsLimitAndCountsErrors(t *testing.T) {
	g := newFakeGarden(t)
	cache := momentgarden.Cache{Dir: t.TempDir()}
	items := []map[string]any{
		imageItem(g, "1", "one.jpg"),
		imageItem(g, "2", "two.jpg"),
		imageItem(g, "3", "three.jpg"),
		{"id": "4", "type": "4", "meta": map[string]any{}, "unix_timestamp": stamp},
	}
	delete(g.media, "/moments-full/two.jpg")
	var raw []json.RawMessage
	for _, item := range items {
		data, _ := json.Marshal(item)
		raw = append(raw, data)
	}
	if _, _, err := cache.StoreMoments(raw); err != nil {
		t.Fatalf("StoreMoments: %v", err)
	}
	testsupport.WriteContent(t, filepath.Join(cache.MetadataDir(), ".DS_Store"), []byte("junk"))

	syncer := momentgarden.NewSyncer(g.client(), momentgarden.Options{Limit: 1}, nil, nil, nil)
	stats, err := syncer.DownloadMedia(context.Background(), cache)
	if err != nil {
		t.Fatalf("DownloadMedia: %v", err)
	}
	if stats.Downloaded != 1 || !stats.LimitHit {
		t.Fatalf("expected the limit to stop after one file: %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(cache.MetadataDir(), ".DS_Store")); !os.IsNotExist(err) {
		t.Fatalf(".DS_Store should be removed, got %v", err)
	}

	unlimited := momentgarden.NewSyncer(g.client(), momentgarden.Options{}, nil, nil, nil)
	stats, err = unlimited.DownloadMedia(context.Background(), cache)
	if err != nil {
		t.Fatalf("DownloadMedia: %v", err)
	}
	if stats.Downloaded != 1 || stats.Skipped != 1 || len(stats.Errors) != 2 {
		t.Fatalf("expected one download, one skip and two errors: %+v", stats)
	}
	entries, _ := os.ReadDir(cache.MediaDir("image"))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".download-") {
			t.Fatalf("partial download left behind: %s", entry.Name())
		}
	}
}

func TestLoadGardens(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteContent(t, filepath.Join(dir, ".mg-config.toml"), []byte(`
[[garden]]
name = "Kid"
garden_id = "12345"
cookies = ["CAKEPHP=1234", "CakeCookie[Auth][User]=ABCD"]

[[garden]]
name = "Other"
garden_id = "678"
cookies = ["CAKEPHP=5678"]
`))
	gardens, err := momentgarden.LoadGardens(path)
	if err != nil {
		t.Fatalf("LoadGardens: %v", err)
	}
	if len(gardens) != 2 || gardens[0].GardenID != "12345" || len(gardens[0].Cookies) != 2 {
		t.Fatalf("unexpected gardens: %+v", gardens)
	}
	selected, err := momentgarden.Select(gardens, []string{"Other"})
	if err != nil || len(selected) != 1 || selected[0].Name != "Other" {
		t.Fatalf("unexpected selection %+v (%v)", selected, err)
	}
	if _, err := momentgarden.Select(gardens, []string{"Nope"}); err == nil {
		t.Fatal("expected unknown garden error")
	}

	bad := testsupport.WriteContent(t, filepath.Join(dir, "bad.toml"), []byte(`
[[garden]]
name = "Kid"
`))
	_, err = momentgarden.LoadGardens(bad)
	if err == nil || !strings.Contains(err.Error(), "garden_id is required") || !strings.Contains(err.Error(), "cookies are required") {
		t.Fatalf("expected joined validation errors, got %v", err)
	}
}

type recordingWaiter struct {
	waits []time.Duration
}

func (w *recordingWaiter) Wait(_ context.Context, d time.Duration, _ string) error {
	w.waits = append(w.waits, d)
	return nil
}

func TestRequestsArePaced(t *testing.T) {
	g := newFakeGarden(t)
	g.pages[1] = []map[string]any{{"id": "1", "type": "1"}}
	g.pages[2] = []map[string]any{{"id": "2", "type": "1"}}
	waiter := &recordingWaiter{}
	syncer := momentgarden.NewSyncer(g.client(), momentgarden.Options{RequestInterval: time.Hour}, nil, nil, waiter)

	if _, err := syncer.SyncMetadata(context.Background(), momentgarden.Garden{GardenID: "1"}, momentgarden.Cache{Dir: t.TempDir()}); err != nil {
		t.Fatalf("SyncMetadata: %v", err)
	}
	if len(waiter.waits) != 2 {
		t.Fatalf("expected a wait before pages 2 and 3, got %v", waiter.waits)
	}
	for _, d := range waiter.waits {
		if d <= 0 {
			t.Fatalf("unexpected wait %v", d)
		}
	}
}

func TestSyncUsesSessionPerGarden(t *testing.T) {
	g := newFakeGarden(t)
	g.pages[1] = []map[string]any{{"id": "1", "type": "1", "unix_timestamp": stamp}}
	gardens := []momentgarden.Garden{
		{Name: "Kid", GardenID: "1", Cookies: []string{"kid=1"}},
		{Name: "Baby", GardenID: "2", Cookies: []string{"baby=1"}},
	}
	var cookies []string
	opts := momentgarden.Options{
		Session: func(garden momentgarden.Garden) momentgarden.Source {
			cookies = append(cookies, garden.Cookies[0])
			return momentgarden.NewClient(momentgarden.ClientOptions{
				BaseURL:      g.srv.URL,
				CommentsPath: "/comments/list/%s",
				Cookies:      garden.Cookies,
			})
		},
	}
	syncer := momentgarden.NewSyncer(nil, opts, nil, nil, nil)

	reports, err := syncer.Sync(context.Background(), t.TempDir(), gardens)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected a report per garden, got %d", len(reports))
	}
	if diff := cmp.Diff([]string{"kid=1", "baby=1"}, cookies); diff != "" {
		t.Fatalf("session order mismatch (-want +got):\n%s", diff)
	}
	if got := g.headers.Get("Cookie"); got != "baby=1" {
		t.Fatalf("last listing should use the second garden's cookie, got %q", got)
	}
}
