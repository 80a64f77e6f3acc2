package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/gocolly/colly/v2"
)

var errEmptyResponse = errors.New("empty response body")

// HTTPRenderer fetches server-rendered markup without a browser. It suits
// dealer sites that do not build their inventory client-side, and tests.
type HTTPRenderer struct {
	opts Options
	log  logger.Logger
}

// NewHTTPRenderer creates a colly-backed renderer.
func NewHTTPRenderer(opts Options, log logger.Logger) *HTTPRenderer {
	if log == nil {
		log = logger.NewNop()
	}
	return &HTTPRenderer{opts: opts.WithDefaults(), log: log}
}

// Render performs a single GET of url and returns the response body.
func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(r.opts.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(defaultMaxBodyBytes),
	)
	collector.SetRequestTimeout(r.opts.Timeout)

	var (
		body     []byte
		fetchErr error
	)

	collector.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})
	collector.OnError(func(resp *colly.Response, err error) {
		if resp != nil && resp.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", resp.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	collector.Wait()

	if fetchErr != nil {
		return "", &FetchError{URL: url, Err: fetchErr}
	}
	if len(body) == 0 {
		return "", &FetchError{URL: url, Err: errEmptyResponse}
	}

	r.log.Debug("Page fetched", logger.String("url", url), logger.Int("bytes", len(body)))

	return string(body), nil
}
