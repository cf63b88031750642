package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Paths the YouTube Data API serves the list calls on.
const (
	SubscriptionsPath = "/youtube/v3/subscriptions"
	ChannelsPath      = "/youtube/v3/channels"
	PlaylistItemsPath = "/youtube/v3/playlistItems"
)

// FakeChannel is one subscription or owned channel served by [FakeYouTube].
//
// An empty ChannelID is served without a resourceId.
type FakeChannel struct {
	ChannelID    string
	Title        string
	Description  string
	Thumbnail    string
	SubscribedAt time.Time
	// OmitSnippet serves the item with no snippet at all.
	OmitSnippet bool
}

// FakeVideo is one upload served by playlistItems.list.
type FakeVideo struct {
	VideoID     string
	Title       string
	Thumbnail   string
	PublishedAt time.Time
}

// UploadsPlaylistID is the uploads playlist [FakeYouTube] reports for a channel.
func UploadsPlaylistID(channelID string) string {
	return "UU-" + channelID
}

// FakeYouTube is an httptest server that pages through a fixed subscription list the way subscriptions.list does.
type FakeYouTube struct {
	Server *httptest.Server

	// Pages are served in order; page n is requested with pageToken "page-n" (the first with none).
	Pages [][]FakeChannel
	// FailPage makes the given 1-based page answer with FailStatus.
	FailPage   int
	FailStatus int
	// Endless keeps returning a fresh nextPageToken with empty pages.
	Endless bool
	// RepeatCursor returns the same nextPageToken on every page.
	RepeatCursor bool
	// BeforeRespond, when set, runs before each page is written.
	BeforeRespond func(page int)

	// Own are the channels returned by channels.list with mine=true.
	Own []FakeChannel
	// Uploads maps a channel id to its uploads, newest first. Only these channels exist for
	// channels.list by id and playlistItems.list.
	Uploads map[string][]FakeVideo
	// FailPath makes every request to the given path answer with FailStatus.
	FailPath string

	mu       sync.Mutex
	requests []*http.Request
}

// NewFakeYouTube starts a server serving pages. The server is closed when the test ends.
func NewFakeYouTube(t *testing.T, pages ...[]FakeChannel) *FakeYouTube {
	t.Helper()

	f := &FakeYouTube{Pages: pages, FailStatus: http.StatusInternalServerError}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Endpoint is the base URL to hand to the API client, with the trailing slash it expects.
func (f *FakeYouTube) Endpoint() string {
	return f.Server.URL + "/"
}

// Requests returns how many requests the server has seen.
func (f *FakeYouTube) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Request returns the i-th (0-based) recorded request.
func (f *FakeYouTube) Request(i int) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// Channels builds n channels with ids prefix-1..prefix-n.
func Channels(prefix string, n int) []FakeChannel {
	out := make([]FakeChannel, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		id := fmt.Sprintf("%s-%d", prefix, i+1)
		out[i] = FakeChannel{
			ChannelID:    id,
			Title:        "Channel " + id,
			Description:  "About " + id,
			Thumbnail:    "https://i.ytimg.com/" + id + ".jpg",
			SubscribedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func (f *FakeYouTube) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	f.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeAPIError(w, http.StatusUnauthorized, "Request is missing required authentication credential.")
		return
	}
	if f.FailPath != "" && r.URL.Path == f.FailPath {
		writeAPIError(w, f.FailStatus, "backend error")
		return
	}

	switch r.URL.Path {
	case SubscriptionsPath:
		f.serveSubscriptions(w, r)
	case ChannelsPath:
		f.serveChannels(w, r)
	case PlaylistItemsPath:
		f.servePlaylistItems(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeYouTube) serveSubscriptions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if tok := r.URL.Query().Get("pageToken"); tok != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(tok, "page-"))
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid page token")
			return
		}
		page = n
	}

	if f.BeforeRespond != nil {
		f.BeforeRespond(page)
	}

	if f.FailPage == page {
		writeAPIError(w, f.FailStatus, "backend error")
		return
	}

	var channels []FakeChannel
	if page-1 < len(f.Pages) {
		channels = f.Pages[page-1]
	}

	next := ""
	switch {
	case f.RepeatCursor:
		next = "page-2"
	case f.Endless || page < len(f.Pages):
		next = "page-" + strconv.Itoa(page+1)
	}

	items := make([]map[string]any, 0, len(channels))
	for _, c := range channels {
		item := map[string]any{"kind": "youtube#subscription", "id": "sub-" + c.ChannelID}
		if !c.OmitSnippet {
			snippet := map[string]any{
				"title":       c.Title,
				"description": c.Description,
				"publishedAt": c.SubscribedAt.Format(time.RFC3339),
				"thumbnails":  map[string]any{"default": map[string]any{"url": c.Thumbnail}},
			}
			if c.ChannelID != "" {
				snippet["resourceId"] = map[string]any{"kind": "youtube#channel", "channelId": c.ChannelID}
			}
			item["snippet"] = snippet
		}
		items = append(items, item)
	}

	body := map[string]any{
		"kind":     "youtube#subscriptionListResponse",
		"items":    items,
		"pageInfo": map[string]any{"resultsPerPage": len(items)},
	}
	if next != "" {
		body["nextPageToken"] = next
	}
	writeBody(w, body)
}

func (f *FakeYouTube) serveChannels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var channels []FakeChannel
	switch {
	case q.Get("mine") == "true":
		channels = f.Own
	case q.Get("id") != "":
		id := q.Get("id")
		if _, ok := f.Uploads[id]; ok {
			channels = []FakeChannel{{ChannelID: id, Title: "Channel " + id}}
		}
	default:
		writeAPIError(w, http.StatusBadRequest, "No filter selected.")
		return
	}

	items := make([]map[string]any, 0, len(channels))
	for _, c := range channels {
		items = append(items, map[string]any{
			"kind": "youtube#channel",
			"id":   c.ChannelID,
			"snippet": map[string]any{
				"title":       c.Title,
				"description": c.Description,
				"thumbnails":  map[string]any{"default": map[string]any{"url": c.Thumbnail}},
			},
			"contentDetails": map[string]any{
				"relatedPlaylists": map[string]any{"uploads": UploadsPlaylistID(c.ChannelID)},
			},
			"statistics": map[string]any{
				"subscriberCount": strconv.Itoa(len(f.Uploads[c.ChannelID]) * 100),
				"videoCount":      strconv.Itoa(len(f.Uploads[c.ChannelID])),
				"viewCount":       "0",
			},
		})
	}

	writeBody(w, map[string]any{"kind": "youtube#channelListResponse", "items": items})
}

func (f *FakeYouTube) servePlaylistItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	playlistID := q.Get("playlistId")

	var videos []FakeVideo
	found := false
	for channelID, uploads := range f.Uploads {
		if UploadsPlaylistID(channelID) == playlistID {
			videos, found = uploads, true
			break
		}
	}
	if !found {
		writeAPIError(w, http.StatusNotFound, "The playlist identified with the request's playlistId parameter cannot be found.")
		return
	}

	if n, err := strconv.Atoi(q.Get("maxResults")); err == nil && n < len(videos) {
		videos = videos[:n]
	}

	items := make([]map[string]any, 0, len(videos))
	for _, v := range videos {
		items = append(items, map[string]any{
			"kind": "youtube#playlistItem",
			"id":   "item-" + v.VideoID,
			"snippet": map[string]any{
				"title":       v.Title,
				"publishedAt": v.PublishedAt.Format(time.RFC3339),
				"playlistId":  playlistID,
				"resourceId":  map[string]any{"kind": "youtube#video", "videoId": v.VideoID},
				"thumbnails":  map[string]any{"default": map[string]any{"url": v.Thumbnail}},
			},
		})
	}

	writeBody(w, map[string]any{"kind": "youtube#playlistItemListResponse", "items": items})
}

// Videos builds n uploads with ids prefix-v1..prefix-vn, newest first.
func Videos(prefix string, n int) []FakeVideo {
	out := make([]FakeVideo, n)
	newest := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		id := fmt.Sprintf("%s-v%d", prefix, i+1)
		out[i] = FakeVideo{
			VideoID:     id,
			Title:       "Video " + id,
			Thumbnail:   "https://i.ytimg.com/vi/" + id + "/default.jpg",
			PublishedAt: newest.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return out
}

func writeBody(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}
