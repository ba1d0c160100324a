// Package github is a typed client for the parts of the GitHub REST API the
// dashboards use.
//
// A Client is built once at startup and is safe for concurrent use. It holds
// the shared pieces: base URL, a rate limiter that paces every outbound call,
// and metrics. WithToken derives a per-session client that sends the signed-in
// user's access token as a bearer token.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/metrics"
)

// PerPage is GitHub's maximum page size, used for every list call.
const PerPage = 100

const apiVersion = "2022-11-28"

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	// MaxCommitPages bounds ListCommits; 0 means no bound.
	MaxCommitPages int
}

type Client struct {
	baseURL        string
	hc             *http.Client
	timeout        time.Duration
	limiter        *rate.Limiter
	maxCommitPages int
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

func NewClient(opts Options, m *metrics.Metrics, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		hc:             &http.Client{Timeout: opts.Timeout},
		timeout:        opts.Timeout,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		maxCommitPages: opts.MaxCommitPages,
		metrics:        m,
		logger:         logger.Named("github"),
	}
}

// WithToken returns a client that authenticates as the given user. The
// limiter and metrics are shared with the parent. An empty token yields an
// unauthenticated client (60 requests/hour on github.com).
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}
	clone := *c
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.hc)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = c.timeout
	clone.hc = hc
	return &clone
}

// get performs one GET and decodes the JSON body into out.
//
// endpoint is a low-cardinality label ("repos.commits") for metrics and logs;
// path is the concrete URL path. Returns the response so callers can inspect
// status 202 (stats still being computed).
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) (int, error) {
	start := time.Now()
	defer func() {
		c.metrics.GitHubDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("github: waiting for rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("github: building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.hc.Do(req)
	if err != nil {
		c.metrics.GitHubRequests.WithLabelValues(endpoint, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, apperror.Upstream("github", fmt.Errorf("GET %s: %w", path, err))
	}
	defer resp.Body.Close()

	c.metrics.GitHubRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, apperror.NotFound("github resource", strings.TrimPrefix(path, "/"))
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		cause := fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			cause = fmt.Errorf("GET %s: rate limit exhausted, resets at %s", path, resp.Header.Get("X-RateLimit-Reset"))
		}
		c.logger.Warn("github request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Error(cause),
		)
		return resp.StatusCode, apperror.Upstream("github", cause)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, apperror.Upstream("github", fmt.Errorf("decoding %s: %w", path, err))
	}
	return resp.StatusCode, nil
}

// paginate walks a list endpoint PerPage items at a time. It keeps going
// while a page comes back full and stops at the first short page, so n full
// pages followed by one page of k items yield n*PerPage+k items. maxPages of
// 0 means no bound; hitting a nonzero bound on a full page is logged as a
// truncated listing.
func paginate[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values, maxPages int) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(PerPage))

	var all []T
	for page := 1; maxPages == 0 || page <= maxPages; page++ {
		query.Set("page", strconv.Itoa(page))

		var batch []T
		if _, err := c.get(ctx, endpoint, path, query, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if len(batch) < PerPage {
			break
		}
		if page == maxPages {
			c.logger.Warn("list truncated at page limit",
				zap.String("endpoint", endpoint),
				zap.String("path", path),
				zap.Int("max_pages", maxPages),
				zap.Int("items", len(all)),
			)
		}
	}
	if all == nil {
		all = []T{}
	}
	return all, nil
}

func escape(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}
