package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const channelAPI = "https://kick.com/api/v2/channels/"

// ChannelInfo is the part of Kick's channel API response we use.
type ChannelInfo struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Chatroom struct {
		ID int `json:"id"`
	} `json:"chatroom"`
}

// Kick's API sits behind Cloudflare, which rejects requests that do not
// look like they come from a browser. Accept-Encoding is left to the
// transport so gzip is decoded automatically.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://kick.com/",
	"Origin":          "https://kick.com",
	"Sec-Fetch-Dest":  "empty",
	"Sec-Fetch-Mode":  "cors",
	"Sec-Fetch-Site":  "same-origin",
}

var apiClient = &http.Client{Timeout: 10 * time.Second}

// ResolveChannel looks up the channel and chatroom ids for slug.
func ResolveChannel(ctx context.Context, slug string) (*ChannelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, channelAPI+url.PathEscape(slug), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := apiClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch channel %s: status %d: %s", slug, resp.StatusCode, snippet)
	}

	var info ChannelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode channel %s: %w", slug, err)
	}
	if info.Chatroom.ID == 0 {
		return nil, fmt.Errorf("channel %s has no chatroom", slug)
	}
	return &info, nil
}
