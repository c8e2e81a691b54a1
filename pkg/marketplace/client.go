// Package marketplace is the client for the marketplace REST backend. It
// issues authenticated list/get/create/update/remove calls and maps every
// failure onto a small set of kinds.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Resource is a collection path under /api.
type Resource string

const (
	ResourceShops      Resource = "shops"
	ResourceMyShops    Resource = "shops/myshops"
	ResourceProducts   Resource = "products"
	ResourceCategories Resource = "categories"
)

// public resources may be listed without a session.
func (r Resource) public() bool {
	return r == ResourceCategories
}

func (r Resource) path() string {
	return "/api/" + string(r)
}

// Config holds the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Debug   bool
}

// Client talks to the marketplace backend.
type Client struct {
	http  *resty.Client
	debug bool
	now   func() time.Time
}

// NewClient constructs a client for cfg.BaseURL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{})

	return &Client{
		http:  rc,
		debug: cfg.Debug,
		now:   time.Now,
	}
}

// File is one binary part of a multipart body.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Body is a create/update payload. Without files it is sent as JSON. With
// files, or when Multipart is set, it is sent as multipart with the JSON
// serialized into JSONField.
type Body struct {
	JSON      any
	JSONField string
	Files     []File
	Multipart bool
}

func (b *Body) multipart() bool {
	return b.Multipart || len(b.Files) > 0
}

// JSONBody wraps a plain JSON payload.
func JSONBody(v any) Body {
	return Body{JSON: v}
}

// List fetches a collection. Both a bare array and a {"data": [...]}
// wrapper are accepted.
func (c *Client) List(ctx context.Context, r Resource, s Session) ([]json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, r.path(), s, r.public(), nil)
	if err != nil {
		return nil, err
	}
	items, err := normalizeList(raw)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Message: "Unexpected list response", Err: err}
	}
	return items, nil
}

// Get fetches one entity.
func (c *Client) Get(ctx context.Context, r Resource, id string, s Session) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, r.path()+"/"+id, s, false, nil)
	if err != nil {
		return nil, err
	}
	return normalizeEntity(raw)
}

// Create posts a new entity and returns the backend's copy.
func (c *Client) Create(ctx context.Context, r Resource, body Body, s Session) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodPost, r.path(), s, false, &body)
	if err != nil {
		return nil, err
	}
	return normalizeEntity(raw)
}

// Update replaces an entity and returns the backend's copy.
func (c *Client) Update(ctx context.Context, r Resource, id string, body Body, s Session) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodPut, r.path()+"/"+id, s, false, &body)
	if err != nil {
		return nil, err
	}
	return normalizeEntity(raw)
}

// Remove deletes an entity. Deleting an already deleted entity fails with
// ErrNotFound.
func (c *Client) Remove(ctx context.Context, r Resource, id string, s Session) error {
	_, err := c.do(ctx, http.MethodDelete, r.path()+"/"+id, s, false, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, s Session, public bool, body *Body) ([]byte, error) {
	if !(public && s.Anonymous()) {
		if err := s.check(c.now()); err != nil {
			return nil, err
		}
	}

	req := c.http.R().SetContext(ctx)
	if !s.Anonymous() {
		req.SetAuthToken(s.Token)
	}
	if body != nil {
		if err := setBody(req, body); err != nil {
			return nil, &Error{Kind: ErrTransport, Message: "Failed to encode request", Err: err}
		}
	}

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Bool("multipart", body != nil && body.multipart()).
			Msg("[MARKETPLACE] Outgoing request")
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("[MARKETPLACE] Request failed")
		return nil, &Error{Kind: ErrTransport, Err: err}
	}

	raw := resp.Body()
	if c.debug {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status_code", resp.StatusCode()).
			Dur("took", resp.Time()).
			Msg("[MARKETPLACE] Incoming response")
	}

	if !resp.IsSuccess() {
		return nil, statusError(resp.StatusCode(), raw)
	}
	if isHTML(raw) {
		return nil, &Error{Kind: ErrTransport, Status: resp.StatusCode(), Message: htmlMessage}
	}
	return raw, nil
}

func setBody(req *resty.Request, body *Body) error {
	if !body.multipart() {
		req.SetHeader("Content-Type", "application/json").SetBody(body.JSON)
		return nil
	}

	field := body.JSONField
	if field == "" {
		field = "data"
	}
	payload, err := json.Marshal(body.JSON)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", field, err)
	}
	req.SetMultipartFormData(map[string]string{field: string(payload)})
	for _, f := range body.Files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		req.SetMultipartField(f.Field, f.Filename, contentType, f.Reader)
	}
	return nil
}

const htmlMessage = "Server returned HTML instead of JSON; check the backend URL and route"

func isHTML(raw []byte) bool {
	head := bytes.TrimSpace(raw)
	if len(head) > 64 {
		head = head[:64]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError maps a non-2xx response onto a failure kind.
func statusError(status int, raw []byte) error {
	e := &Error{Status: status}

	if isHTML(raw) {
		e.Message = htmlMessage
	} else {
		var body errorBody
		if err := json.Unmarshal(raw, &body); err == nil {
			e.Message = body.Message
			if e.Message == "" {
				e.Message = body.Error
			}
		}
	}

	switch {
	case status == http.StatusUnauthorized || mentionsBadToken(e.Message):
		e.Kind = ErrSessionExpired
	case status == http.StatusNotFound:
		e.Kind = ErrNotFound
	case status >= 500:
		e.Kind = ErrServer
	case e.Message == htmlMessage:
		e.Kind = ErrTransport
	default:
		e.Kind = ErrRejected
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed with status %d", status)
	}
	return e
}

func mentionsBadToken(msg string) bool {
	return strings.Contains(msg, "Unauthorized") || strings.Contains(msg, "Invalid token")
}

func normalizeList(raw []byte) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapper struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Data == nil {
		return []json.RawMessage{}, nil
	}
	return wrapper.Data, nil
}

// normalizeEntity unwraps {"data": {...}} and passes anything else through.
func normalizeEntity(raw []byte) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, &Error{Kind: ErrTransport, Message: "Unexpected response from the marketplace"}
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err == nil {
		if data, ok := wrapper["data"]; ok && len(data) > 0 && data[0] == '{' {
			return data, nil
		}
	}
	return json.RawMessage(raw), nil
}

// decodeAll decodes every raw item into T.
func decodeAll[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, &Error{Kind: ErrTransport, Message: "Unexpected response from the marketplace", Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne[T any](raw json.RawMessage) (*T, error) {
	var v T
	if len(raw) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &Error{Kind: ErrTransport, Message: "Unexpected response from the marketplace", Err: err}
	}
	return &v, nil
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Error().Msgf("[MARKETPLACE] "+format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Warn().Msgf("[MARKETPLACE] "+format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug().Msgf("[MARKETPLACE] "+format, v...)
}
