package momentgarden

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goodmorning/internal/textutil"
)

// Moment types as reported by the site. Type 3 has never been observed.
const (
	TypeText  = 1
	TypeImage = 2
	TypeVideo = 4
	TypeEvent = 5
)

// Moment holds the fields of a listed item that the downloader uses. The
// cache keeps the full item exactly as received.
type Moment struct {
	ID            flexString `json:"id"`
	Type          flexString `json:"type"`
	Path          string     `json:"path"`
	Meta          *Meta      `json:"meta"`
	CommentCount  flexString `json:"comment_cnt"`
	UnixTimestamp flexString `json:"unix_timestamp"`
}

// Meta carries montage and video locations.
type Meta struct {
	Montage     string `json:"montage"`
	VideoPath   string `json:"video_path"`
	VideoPathHD string `json:"video_path_hd"`
}

// flexString accepts both JSON strings and numbers; the site is not
// consistent about which it sends.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// ParseMoment decodes the fields of a raw item.
func ParseMoment(raw []byte) (Moment, error) {
	var m Moment
	if err := json.Unmarshal(raw, &m); err != nil {
		return Moment{}, fmt.Errorf("decode moment: %w", err)
	}
	if strings.TrimSpace(string(m.ID)) == "" {
		return Moment{}, errors.New("moment without id")
	}
	return m, nil
}

// Kind returns the numeric moment type, or 0 when it is not a number.
func (m Moment) Kind() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(m.Type)))
	if err != nil {
		return 0
	}
	return n
}

// Comments reports the comment count.
func (m Moment) Comments() int {
	n, _ := strconv.Atoi(strings.TrimSpace(string(m.CommentCount)))
	return n
}

// Date returns the UTC calendar date of the moment as YYYY-MM-DD.
func (m Moment) Date() (string, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(string(m.UnixTimestamp)), 10, 64)
	if err != nil {
		return "", fmt.Errorf("[%s] invalid unix_timestamp %q", m.ID, m.UnixTimestamp)
	}
	return time.Unix(secs, 0).UTC().Format(time.DateOnly), nil
}

// MediaURLs lists what should be downloaded for a moment. Text and event
// moments have nothing beyond their metadata. Images are fetched at full
// resolution, and montages add every listed tile next to the main image.
// Videos prefer the HD rendition.
func (m Moment) MediaURLs() ([]string, error) {
	switch m.Kind() {
	case TypeText, TypeEvent:
		return nil, nil
	case TypeImage:
		if m.Path == "" {
			return nil, fmt.Errorf("[%s] image item has no path", m.ID)
		}
		main := strings.Replace(m.Path, "moments-large", "moments-full", 1)
		urls := []string{main}
		if m.Meta != nil && m.Meta.Montage != "" {
			base := main[:strings.LastIndex(main, "/")+1]
			for _, tile := range strings.Split(m.Meta.Montage, ",") {
				if tile = strings.TrimSpace(tile); tile != "" {
					urls = append(urls, base+tile)
				}
			}
		}
		return urls, nil
	case TypeVideo:
		switch {
		case m.Meta != nil && m.Meta.VideoPathHD != "":
			return []string{m.Meta.VideoPathHD}, nil
		case m.Meta != nil && m.Meta.VideoPath != "":
			return []string{m.Meta.VideoPath}, nil
		default:
			return nil, fmt.Errorf(`[%s] item does not have ".meta.video_path_hd" or ".meta.video_path"`, m.ID)
		}
	default:
		return nil, fmt.Errorf("[%s] unknown item type %q", m.ID, m.Type)
	}
}

// MediaDir returns "image" or "video" for downloadable moment types.
func (m Moment) MediaDir() string {
	if m.Kind() == TypeVideo {
		return "video"
	}
	return "image"
}

// OutputName is the local file name for a media URL: the moment date and the
// decoded last path element of the URL, with characters that are unsafe in
// file names replaced.
func OutputName(date, rawURL string) string {
	base := path.Base(rawURL)
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		base = path.Base(parsed.Path)
	}
	return date + "_" + textutil.SanitizeFileName(filepath.Base(base))
}
