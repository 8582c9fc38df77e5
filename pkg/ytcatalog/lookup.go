package ytcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/html"
)

var errNotEmbeddable = errors.New("video is not embeddable")

// Lookup resolves the metadata of a single video id. It tries the oEmbed
// endpoint first and falls back to scraping the watch page when the video is
// not embeddable.
func (c *Client) Lookup(ctx context.Context, videoID string) (*Video, error) {
	video, err := c.lookupOembed(ctx, videoID)
	if err != nil {
		if !errors.Is(err, errNotEmbeddable) {
			return nil, fmt.Errorf("failed to look up video via oembed: %w", err)
		}

		video, err = c.lookupPage(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up video from page: %w", err)
		}
	}

	return video, nil
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (c *Client) lookupOembed(ctx context.Context, videoID string) (*Video, error) {
	endpoint := c.oembedURL + "?url=" + url.QueryEscape("https://www.youtube.com/watch?v="+videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound:
		return nil, ErrVideoNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errNotEmbeddable
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &Video{
		ExternalID:   videoID,
		Title:        result.Title,
		ThumbnailURL: result.ThumbnailURL,
		SourceLabel:  result.AuthorName,
	}, nil
}

func (c *Client) lookupPage(ctx context.Context, videoID string) (*Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.watchURL+"/"+videoID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Video{
		ExternalID:   videoID,
		Title:        findTitle(doc),
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
		SourceLabel:  findChannelName(doc),
	}, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}

	return ""
}

func findChannelName(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "link" {
		isName := false
		content := ""
		for _, attr := range n.Attr {
			if attr.Key == "itemprop" && attr.Val == "name" {
				isName = true
			}
			if attr.Key == "content" {
				content = attr.Val
			}
		}
		if isName {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if name := findChannelName(c); name != "" {
			return name
		}
	}

	return ""
}
