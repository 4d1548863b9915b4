package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	statusOK         = "ok"
	fallbackReason   = "Erreur API"
	maxResponseBytes = 1 << 20
)

// Client fetches top headlines from a NewsAPI-compatible endpoint.
type Client struct {
	endpoint string
	language string
	pageSize int
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient builds a client from configuration; one attempt per call, no retry.
func NewClient(cfg config.SourceConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Client{
		endpoint: cfg.Endpoint,
		language: cfg.Language,
		pageSize: pageSize,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type headlinesResponse struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Articles []wireArticle `json:"articles"`
}

type wireArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

// FetchTopHeadlines returns the normalized articles of one category.
func (c *Client) FetchTopHeadlines(ctx context.Context, category domain.Category, token string) ([]domain.Article, error) {
	if token == "" {
		return nil, &domain.SourceError{Reason: "missing api key"}
	}
	if !category.Valid() {
		return nil, &domain.SourceError{Reason: fmt.Sprintf("unsupported category %q", category)}
	}

	reqURL, err := c.buildURL(category, token)
	if err != nil {
		return nil, &domain.SourceError{Reason: domain.ReasonTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.SourceError{Reason: domain.ReasonTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", "NewsRelay/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.SourceError{Reason: domain.ReasonTransport, Err: fmt.Errorf("request headlines: %w", err)}
	}
	defer resp.Body.Close()

	var payload headlinesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, &domain.SourceError{
			Reason: domain.ReasonTransport,
			Err:    fmt.Errorf("decode response (%s): %w", resp.Status, err),
		}
	}

	if payload.Status != statusOK || payload.Articles == nil {
		reason := strings.TrimSpace(payload.Message)
		if reason == "" {
			reason = fallbackReason
		}
		return nil, &domain.SourceError{Reason: reason}
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, raw := range payload.Articles {
		articles = append(articles, normalize(raw))
	}

	c.debug("headlines fetched", "category", category, "count", len(articles))
	return articles, nil
}

func (c *Client) buildURL(category domain.Category, token string) (string, error) {
	parsed, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)
	}

	query := parsed.Query()
	query.Set("category", string(category))
	if c.language != "" {
		query.Set("language", c.language)
	}
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	query.Set("apiKey", token)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func normalize(raw wireArticle) domain.Article {
	article := domain.Article{
		Title:       strings.TrimSpace(raw.Title),
		Description: plainText(raw.Description),
		URL:         strings.TrimSpace(raw.URL),
		SourceName:  strings.TrimSpace(raw.Source.Name),
	}
	if raw.PublishedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			article.PublishedAt = ts
		}
	}
	return article
}

// plainText strips markup that providers occasionally leave in descriptions.
func plainText(value string) string {
	value = strings.TrimSpace(value)
	if !strings.ContainsAny(value, "<&") {
		return value
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
