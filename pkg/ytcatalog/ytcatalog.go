// Package ytcatalog queries the YouTube catalog: keyword search through the
// Data API and metadata lookup for a bare video id through oEmbed with an
// HTML-scrape fallback.
package ytcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("api key is not configured")
	ErrVideoNotFound = errors.New("video not found")
)

type Video struct {
	ExternalID   string `json:"externalId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	SourceLabel  string `json:"sourceLabel"`
}

type Client struct {
	apiKey     string
	searchURL  string
	oembedURL  string
	watchURL   string
	httpClient *http.Client
}

const (
	defaultSearchURL = "https://www.googleapis.com/youtube/v3/search"
	defaultOembedURL = "https://www.youtube.com/oembed"
	defaultWatchURL  = "https://youtu.be"
)

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		searchURL:  defaultSearchURL,
		oembedURL:  defaultOembedURL,
		watchURL:   defaultWatchURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURL points the client at a non-default search endpoint.
func NewClientWithURL(apiKey, searchURL string) *Client {
	c := NewClient(apiKey)
	c.searchURL = searchURL
	return c
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *Client) Search(ctx context.Context, query string) ([]Video, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "10")
	params.Set("q", query)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	videos := make([]Video, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}

		videos = append(videos, Video{
			ExternalID:   item.ID.VideoID,
			Title:        item.Snippet.Title,
			ThumbnailURL: item.Snippet.Thumbnails.High.URL,
			SourceLabel:  item.Snippet.ChannelTitle,
		})
	}

	return videos, nil
}
