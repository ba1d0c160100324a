package github

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/metrics"
)

// ContributionsClient reads the contribution calendar from the public
// contributions API (github-contributions-api.jogruber.de by default). The
// REST API has no equivalent endpoint.
//
// FALLBACK:
// The calendar is decorative, so any failure (network, non-200, bad JSON)
// degrades to a placeholder year generated from the username. The same
// username always yields the same placeholder.
type ContributionsClient struct {
	baseURL string
	hc      *http.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewContributionsClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *ContributionsClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ContributionsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger.Named("contributions"),
		now:     time.Now,
	}
}

type contributionsResponse struct {
	Total         map[string]int    `json:"total"`
	Contributions []ContributionDay `json:"contributions"`
}

// Get returns the last year of contributions. It only fails when ctx is done.
func (c *ContributionsClient) Get(ctx context.Context, username string) (*Contributions, error) {
	out, err := c.fetch(ctx, username)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	c.logger.Info("contributions API unavailable, using placeholder",
		zap.String("username", username), zap.Error(err))
	return Placeholder(username, c.now()), nil
}

func (c *ContributionsClient) fetch(ctx context.Context, username string) (*Contributions, error) {
	u := c.baseURL + "/" + url.PathEscape(username) + "?y=last"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.metrics.GitHubRequests.WithLabelValues("contributions", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.GitHubRequests.WithLabelValues("contributions", fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body contributionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if body.Contributions == nil {
		return nil, fmt.Errorf("response has no contributions")
	}

	total, ok := body.Total["lastYear"]
	if !ok {
		for _, d := range body.Contributions {
			total += d.Count
		}
	}
	return &Contributions{Username: username, Total: total, Days: body.Contributions}, nil
}

// Placeholder generates a deterministic year of contributions ending on
// now's date (UTC).
func Placeholder(username string, now time.Time) *Contributions {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(username)))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-1, 0, 1)

	out := &Contributions{Username: username, Placeholder: true}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		count := 0
		// Roughly 40% of days are active, with weekends quieter.
		chance := 40
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			chance = 15
		}
		if rng.IntN(100) < chance {
			count = 1 + rng.IntN(12)
		}
		out.Days = append(out.Days, ContributionDay{
			Date:  d.Format(time.DateOnly),
			Count: count,
			Level: levelFor(count),
		})
		out.Total += count
	}
	return out
}

func levelFor(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= 3:
		return 1
	case count <= 6:
		return 2
	case count <= 9:
		return 3
	default:
		return 4
	}
}
