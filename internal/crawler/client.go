// Package crawler talks to the hosted crawling service that runs the lead
// acquisition actor. Runs are started asynchronously; results are delivered
// to an ingestion webhook by the service itself.
package crawler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/config"
)

const (
	DefaultBaseURL = "https://api.apify.com/v2"

	EventRunSucceeded = "ACTOR.RUN.SUCCEEDED"
)

type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	token    string
	baseURL  string
	client   *http.Client
	validate *validator.Validate
	logger   *zap.Logger
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crawler request failed: status %d: %s", e.StatusCode, e.Body)
}

type Run struct {
	ID                     string     `json:"id" validate:"required"`
	ActorID                string     `json:"actId"`
	Status                 string     `json:"status"`
	StartedAt              *time.Time `json:"startedAt"`
	FinishedAt             *time.Time `json:"finishedAt"`
	DefaultKeyValueStoreID string     `json:"defaultKeyValueStoreId"`
	DefaultDatasetID       string     `json:"defaultDatasetId"`
}

type Dataset struct {
	ID        string `json:"id"`
	ItemCount int    `json:"itemCount"`
}

type Webhook struct {
	EventTypes []string `json:"eventTypes"`
	RequestURL string   `json:"requestUrl"`
}

func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:    cfg.Token,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
		logger:   logger.Named("crawler"),
	}
}

// Configured reports whether an API token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

// StartJob starts an actor run without waiting for it to finish.
func (c *Client) StartJob(ctx context.Context, actorID string, input any, webhooks []Webhook) (Run, error) {
	query := url.Values{}
	if len(webhooks) > 0 {
		encoded, err := json.Marshal(webhooks)
		if err != nil {
			return Run{}, err
		}
		query.Set("webhooks", base64.StdEncoding.EncodeToString(encoded))
	}
	path := "/acts/" + url.PathEscape(actorID) + "/runs"
	var out struct {
		Data Run `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, path, query, input, &out); err != nil {
		return Run{}, fmt.Errorf("start actor %s: %w", actorID, err)
	}
	if err := c.validate.Struct(out.Data); err != nil {
		return Run{}, fmt.Errorf("start actor %s: invalid run: %w", actorID, err)
	}
	return out.Data, nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := url.Values{}
	query.Set("desc", "1")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Data struct {
			Items []Run `json:"items"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/actor-runs", query, nil, &out); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out.Data.Items, nil
}

// GetRecord decodes a key-value store record into out. It reports false when
// the record does not exist.
func (c *Client) GetRecord(ctx context.Context, storeID, key string, out any) (bool, error) {
	path := "/key-value-stores/" + url.PathEscape(storeID) + "/records/" + url.PathEscape(key)
	err := c.do(ctx, http.MethodGet, path, nil, nil, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get record %s/%s: %w", storeID, key, err)
	}
	return true, nil
}

func (c *Client) GetDataset(ctx context.Context, datasetID string) (Dataset, error) {
	var out struct {
		Data Dataset `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID), nil, nil, &out); err != nil {
		return Dataset{}, fmt.Errorf("get dataset %s: %w", datasetID, err)
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	if c.token == "" {
		return config.MissingCredentialError{Name: "CRAWLER_API_TOKEN"}
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Debug("crawler request failed", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
