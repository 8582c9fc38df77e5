package ytcatalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/html"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "cat videos", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"id": {"videoId": "abc123"},
					"snippet": {
						"title": "Cats",
						"channelTitle": "Cat Channel",
						"thumbnails": {"high": {"url": "https://img/abc123.jpg"}}
					}
				},
				{
					"id": {},
					"snippet": {"title": "a channel, not a video"}
				}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithURL("test-key", srv.URL)
	videos, err := c.Search(context.Background(), "cat videos")
	require.NoError(t, err)
	require.Len(t, videos, 1, "items without a video id must be skipped")
	assert.Equal(t, Video{
		ExternalID:   "abc123",
		Title:        "Cats",
		ThumbnailURL: "https://img/abc123.jpg",
		SourceLabel:  "Cat Channel",
	}, videos[0])
}

func TestSearchWithoutAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Search(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClientWithURL("test-key", srv.URL)
	_, err := c.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestLookupViaOembed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("url"), "abc123")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Cats","author_name":"Cat Channel","thumbnail_url":"https://img/abc123.jpg"}`))
	}))
	defer srv.Close()

	c := NewClient("")
	c.oembedURL = srv.URL

	video, err := c.Lookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, &Video{
		ExternalID:   "abc123",
		Title:        "Cats",
		ThumbnailURL: "https://img/abc123.jpg",
		SourceLabel:  "Cat Channel",
	}, video)
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("")
	c.oembedURL = srv.URL

	_, err := c.Lookup(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestLookupFallsBackToPageScrape(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// not embeddable: oembed refuses, the watch page still has metadata
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer oembed.Close()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/abc123", r.URL.Path)
		w.Write([]byte(`<html><head>
			<title>Some Video - YouTube</title>
			<link itemprop="name" content="Some Channel">
		</head><body></body></html>`))
	}))
	defer page.Close()

	c := NewClient("")
	c.oembedURL = oembed.URL
	c.watchURL = page.URL

	video, err := c.Lookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Some Video - YouTube", video.Title)
	assert.Equal(t, "Some Channel", video.SourceLabel)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/hqdefault.jpg", video.ThumbnailURL)
}

func TestFindTitleAndChannel(t *testing.T) {
	page := `<html><head>
		<title>Some Video - YouTube</title>
		<link itemprop="name" content="Some Channel">
	</head><body></body></html>`

	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Some Video - YouTube", findTitle(doc))
	assert.Equal(t, "Some Channel", findChannelName(doc))
}
