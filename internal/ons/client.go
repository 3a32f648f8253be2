// Package ons fetches ONS dataset pages and the files they link to.
package ons

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/logging"
)

const sourceName = "ons"

// Client downloads ONS pages and files.
type Client struct {
	http        *resty.Client
	baseURL     string
	concurrency int
}

// New creates a client.
func New(opts ...Option) (*Client, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetTimeout(o.timeout).
		SetRetryCount(o.retries).
		SetRetryWaitTime(o.backoff).
		SetRetryMaxWaitTime(o.backoff*8).
		SetHeader("User-Agent", o.userAgent).
		AddRetryCondition(retryable)

	return &Client{http: httpClient, baseURL: o.baseURL, concurrency: o.concurrency}, nil
}

// retryable reports whether a failed attempt is worth repeating. Attempts
// whose context is done are never retried.
func retryable(res *resty.Response, err error) bool {
	if res != nil && res.Request != nil && res.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if res == nil {
		return false
	}
	code := res.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Links fetches pageURL and returns the absolute URLs of anchors whose
// href contains match, de-duplicated in page order.
func (c *Client) Links(ctx context.Context, pageURL, match string) ([]string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapParse("html", pageURL, err)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.NewConfigError("ons", "invalid base URL "+c.baseURL, err)
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(href, match) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	logging.FromContext(ctx).Debug().
		Str("page", pageURL).
		Int("links", len(links)).
		Msg("Parsed download links")
	return links, nil
}

// Download returns the body of fileURL.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	return c.get(ctx, fileURL)
}

// DownloadAll downloads every URL with bounded concurrency and passes
// each body to handle. The first error cancels the remaining downloads.
func (c *Client) DownloadAll(ctx context.Context, urls []string, handle func(ctx context.Context, fileURL string, body []byte) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, u := range urls {
		g.Go(func() error {
			start := time.Now()
			body, err := c.Download(ctx, u)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Info().
				Str("url", u).
				Int("bytes", len(body)).
				Dur("elapsed", time.Since(start)).
				Msg("Downloaded file")
			return handle(ctx, u, body)
		})
	}
	return g.Wait()
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errors.APIError{
			Source:   sourceName,
			Endpoint: target,
			Message:  "request failed",
			Err:      err,
		}
	}
	if res.IsError() {
		return nil, &errors.APIError{
			Source:     sourceName,
			Endpoint:   target,
			StatusCode: res.StatusCode(),
			Message:    res.Status(),
		}
	}
	return res.Body(), nil
}

// FileName returns the file name of a download URL. ONS links carry the
// file path in a uri query parameter.
func FileName(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return path.Base(fileURL)
	}
	if uri := u.Query().Get("uri"); uri != "" {
		return path.Base(uri)
	}
	return path.Base(u.Path)
}
