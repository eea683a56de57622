// Package leadconnector talks to the LeadConnector (GoHighLevel) contacts API.
package leadconnector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sngm3741/review-relay/internal/review/application"
	"github.com/sngm3741/review-relay/internal/review/domain"
)

const (
	DefaultBaseURL    = "https://services.leadconnectorhq.com"
	DefaultAPIVersion = "2021-07-28"

	maxErrorBody = 1 << 16
)

// CallObserver times CRM round-trips. status is 0 when no response arrived.
type CallObserver interface {
	ObserveCRMCall(step domain.Step, status int, elapsed time.Duration)
}

// Config defines what Client needs.
type Config struct {
	HTTPClient  *http.Client
	BaseURL     string
	APIVersion  string
	AccessToken string
	Observer    CallObserver
}

// Client implements application.CRMClient over HTTP.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiVersion  string
	accessToken string
	observer    CallObserver
}

// NewClient constructs a Client, filling in the public API defaults.
func NewClient(cfg Config) *Client {
	c := &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiVersion:  cfg.APIVersion,
		accessToken: cfg.AccessToken,
		observer:    cfg.Observer,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.apiVersion == "" {
		c.apiVersion = DefaultAPIVersion
	}
	return c
}

var _ application.CRMClient = (*Client)(nil)

type upsertRequest struct {
	LocationID   string                         `json:"locationId"`
	Name         string                         `json:"name"`
	Email        string                         `json:"email"`
	Phone        string                         `json:"phone"`
	Source       string                         `json:"source"`
	CustomFields []application.CustomFieldValue `json:"customFields,omitempty"`
}

type customFieldsRequest struct {
	CustomFields []application.CustomFieldValue `json:"customFields"`
}

type noteRequest struct {
	Body string `json:"body"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// UpsertContact creates or updates the contact keyed by email.
func (c *Client) UpsertContact(ctx context.Context, in application.ContactUpsert) (application.UpsertedContact, error) {
	body, err := c.do(ctx, domain.StepUpsert, http.MethodPost, "/contacts/upsert", upsertRequest{
		LocationID:   in.LocationID,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Source:       in.Source,
		CustomFields: in.CustomFields,
	})
	if err != nil {
		return application.UpsertedContact{}, err
	}

	parsed, err := ParseContactID(body)
	if err != nil {
		return application.UpsertedContact{}, err
	}
	return application.UpsertedContact{ID: parsed.ID, Found: parsed.Found, Shape: parsed.Shape}, nil
}

// UpdateCustomFields sets custom fields on an existing contact.
func (c *Client) UpdateCustomFields(ctx context.Context, contactID string, fields []application.CustomFieldValue) error {
	_, err := c.do(ctx, domain.StepCustomFields, http.MethodPut, contactPath(contactID, ""), customFieldsRequest{CustomFields: fields})
	return err
}

// CreateNote attaches a note to the contact.
func (c *Client) CreateNote(ctx context.Context, contactID, body string) error {
	_, err := c.do(ctx, domain.StepNote, http.MethodPost, contactPath(contactID, "/notes"), noteRequest{Body: body})
	return err
}

// AddTags adds tags to the contact.
func (c *Client) AddTags(ctx context.Context, contactID string, tags []string) error {
	_, err := c.do(ctx, domain.StepTag, http.MethodPost, contactPath(contactID, "/tags"), tagsRequest{Tags: tags})
	return err
}

func contactPath(contactID, suffix string) string {
	return "/contacts/" + url.PathEscape(contactID) + suffix
}

func (c *Client) do(ctx context.Context, step domain.Step, method, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", step, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", step, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(step, 0, start)
		return nil, fmt.Errorf("%s: request failed: %w", step, err)
	}
	defer res.Body.Close()
	c.observe(step, res.StatusCode, start)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &application.UpstreamError{Step: step, Status: res.StatusCode, Body: string(message)}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", step, err)
	}
	return data, nil
}

func (c *Client) observe(step domain.Step, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveCRMCall(step, status, time.Since(start))
	}
}
