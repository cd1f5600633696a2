// Package client provides the HTTP client for the Wikipedia and Wikidata
// APIs with retry and error classification. It implements enrich.EntityResolver.
package client

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

	"github.com/Sternrassler/pioneers/pkg/enrich"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Wikimedia API operations.
var (
	wikiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wiki_requests_total",
		Help: "Total Wikimedia API requests by api and status",
	}, []string{"api", "status"})

	wikiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wiki_request_duration_seconds",
		Help:    "Wikimedia API request duration in seconds by api",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"api"})

	wikiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wiki_errors_total",
		Help: "Total Wikimedia API errors by class",
	}, []string{"class"})
)

// API names used in metrics and errors.
const (
	APIWikipedia = "wikipedia"
	APIWikidata  = "wikidata"
)

// ErrorClass represents a classification of API errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors and API-level errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client talks to the Wikipedia and Wikidata action APIs.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header (required by the Wikimedia User-Agent policy)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// WikipediaURL is the api.php endpoint used for articles and images
	WikipediaURL string

	// WikidataURL is the api.php endpoint used for claims and labels
	WikidataURL string

	// Language for labels
	Language string

	// Timeout per HTTP request
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns the configuration for the English Wikipedia.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:      userAgent,
		WikipediaURL:   "https://en.wikipedia.org/w/api.php",
		WikidataURL:    "https://www.wikidata.org/w/api.php",
		Language:       "en",
		Timeout:        15 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new Wikimedia client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	for name, raw := range map[string]string{"wikipedia_url": cfg.WikipediaURL, "wikidata_url": cfg.WikidataURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
		}
	}

	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	logger := log.With().Str("component", "wiki-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// retryConfig scales the per-class retry policy by the configured attempts and backoff.
func (c *Client) retryConfig(errorClass ErrorClass) RetryConfig {
	config := RetryConfigForErrorClass(errorClass)
	config.MaxAttempts = c.config.MaxRetries
	if c.config.InitialBackoff > 0 && c.config.InitialBackoff < config.InitialBackoff {
		config.InitialBackoff = c.config.InitialBackoff
	}
	return config
}

// getJSON performs a GET against an action API endpoint and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, api, endpoint string, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	startTime := time.Now()
	defer func() {
		wikiRequestDuration.WithLabelValues(api).Observe(time.Since(startTime).Seconds())
	}()

	return retryWithBackoff(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return &APIError{API: api, ErrorClass: ErrorClassClient, Message: "create request", Err: err}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		c.logger.Debug().
			Str("api", api).
			Str("action", params.Get("action")).
			Msg("Executing Wikimedia request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errClass := c.classifyError(nil, err)
			wikiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			wikiRequestsTotal.WithLabelValues(api, "network_error").Inc()
			c.logger.Warn().Err(err).Str("api", api).Msg("HTTP request failed")
			return &APIError{API: api, ErrorClass: errClass, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		wikiRequestsTotal.WithLabelValues(api, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := c.classifyError(resp, nil)
			wikiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			_, _ = io.Copy(io.Discard, resp.Body)

			c.logger.Warn().
				Str("api", api).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Wikimedia request error")

			return &APIError{
				API:        api,
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			wikiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{API: api, StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
		}

		var apiErr struct {
			Error *struct {
				Code string `json:"code"`
				Info string `json:"info"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil {
			wikiErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
			return &APIError{API: api, StatusCode: resp.StatusCode, ErrorClass: ErrorClassClient, Message: "decode response", Err: err}
		}
		if apiErr.Error != nil {
			wikiErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
			return &APIError{
				API:        api,
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassClient,
				Message:    apiErr.Error.Code + ": " + apiErr.Error.Info,
			}
		}

		if err := json.Unmarshal(body, out); err != nil {
			wikiErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
			return &APIError{API: api, StatusCode: resp.StatusCode, ErrorClass: ErrorClassClient, Message: "decode response", Err: err}
		}
		return nil
	}, classOf)
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

type queryPage struct {
	Title     string `json:"title"`
	Missing   bool   `json:"missing"`
	Invalid   bool   `json:"invalid"`
	Extract   string `json:"extract"`
	PageProps struct {
		WikibaseItem string `json:"wikibase_item"`
	} `json:"pageprops"`
	ImageInfo []struct {
		URL string `json:"url"`
	} `json:"imageinfo"`
}

type queryResponse struct {
	Query struct {
		Pages []queryPage `json:"pages"`
	} `json:"query"`
}

// LookupArticle finds the Wikipedia article titled title, following redirects.
// Returns ErrNotFound when the article does not exist.
func (c *Client) LookupArticle(ctx context.Context, title string) (enrich.Article, error) {
	params := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"pageprops|extracts"},
		"ppprop":      {"wikibase_item"},
		"explaintext": {"1"},
		"exintro":     {"1"},
		"redirects":   {"1"},
	}

	var resp queryResponse
	if err := c.getJSON(ctx, APIWikipedia, c.config.WikipediaURL, params, &resp); err != nil {
		return enrich.Article{}, fmt.Errorf("lookup article %q: %w", title, err)
	}

	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing || resp.Query.Pages[0].Invalid {
		return enrich.Article{}, fmt.Errorf("lookup article %q: %w", title, ErrNotFound)
	}

	page := resp.Query.Pages[0]
	return enrich.Article{
		Title:    page.Title,
		Extract:  page.Extract,
		EntityID: page.PageProps.WikibaseItem,
	}, nil
}

type snak struct {
	DataValue *struct {
		Value json.RawMessage `json:"value"`
	} `json:"datavalue"`
}

type entity struct {
	ID      string          `json:"id"`
	Missing json.RawMessage `json:"missing"`
	Claims  map[string][]struct {
		MainSnak snak `json:"mainsnak"`
	} `json:"claims"`
	Labels map[string]struct {
		Value string `json:"value"`
	} `json:"labels"`
}

type entitiesResponse struct {
	Entities map[string]entity `json:"entities"`
}

func (c *Client) getEntity(ctx context.Context, entityID string, params url.Values) (entity, error) {
	params.Set("action", "wbgetentities")
	params.Set("ids", entityID)

	var resp entitiesResponse
	if err := c.getJSON(ctx, APIWikidata, c.config.WikidataURL, params, &resp); err != nil {
		return entity{}, err
	}

	ent, ok := resp.Entities[entityID]
	if !ok || ent.Missing != nil {
		return entity{}, ErrNotFound
	}
	return ent, nil
}

// FetchClaims returns the entity-valued claims of a Wikidata entity.
// Statements whose value is not an entity reference (no value, some value,
// strings, quantities) are skipped.
func (c *Client) FetchClaims(ctx context.Context, entityID string) (enrich.Claims, error) {
	ent, err := c.getEntity(ctx, entityID, url.Values{"props": {"claims"}})
	if err != nil {
		return nil, fmt.Errorf("fetch claims %s: %w", entityID, err)
	}

	claims := make(enrich.Claims, len(ent.Claims))
	for property, statements := range ent.Claims {
		ids := make([]string, 0, len(statements))
		for _, st := range statements {
			if st.MainSnak.DataValue == nil {
				continue
			}
			var ref struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(st.MainSnak.DataValue.Value, &ref); err != nil || ref.ID == "" {
				continue
			}
			ids = append(ids, ref.ID)
		}
		claims[property] = ids
	}
	return claims, nil
}

// FetchLabel returns the label of a Wikidata entity in the configured language.
func (c *Client) FetchLabel(ctx context.Context, entityID string) (string, error) {
	ent, err := c.getEntity(ctx, entityID, url.Values{
		"props":     {"labels"},
		"languages": {c.config.Language},
	})
	if err != nil {
		return "", fmt.Errorf("fetch label %s: %w", entityID, err)
	}

	label, ok := ent.Labels[c.config.Language]
	if !ok || label.Value == "" {
		return "", fmt.Errorf("fetch label %s: %w", entityID, ErrNotFound)
	}
	return label.Value, nil
}

// FetchImageURL resolves a Commons/Wikipedia file name to its original URL.
func (c *Client) FetchImageURL(ctx context.Context, fileName string) (string, error) {
	fileName = strings.TrimPrefix(strings.TrimSpace(fileName), "File:")
	if fileName == "" {
		return "", fmt.Errorf("fetch image: %w", ErrNotFound)
	}

	params := url.Values{
		"action": {"query"},
		"titles": {"File:" + fileName},
		"prop":   {"imageinfo"},
		"iiprop": {"url"},
	}

	var resp queryResponse
	if err := c.getJSON(ctx, APIWikipedia, c.config.WikipediaURL, params, &resp); err != nil {
		return "", fmt.Errorf("fetch image %q: %w", fileName, err)
	}

	if len(resp.Query.Pages) == 0 || len(resp.Query.Pages[0].ImageInfo) == 0 || resp.Query.Pages[0].ImageInfo[0].URL == "" {
		return "", fmt.Errorf("fetch image %q: %w", fileName, ErrNotFound)
	}
	return resp.Query.Pages[0].ImageInfo[0].URL, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// IsNotFound reports whether err means the requested resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var _ enrich.EntityResolver = (*Client)(nil)
