package homework

import (
	"bytes"
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

	"hwbot/pkg/logx"
)

// DefaultEndpoint is the Practicum homework statuses API.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

const maxBodyBytes = 4 << 20

type ClientConfig struct {
	Endpoint string
	Token    string
	// Timeout bounds one request including reading the body.
	Timeout time.Duration
}

// Client fetches raw homework_statuses envelopes. One call, one GET; no retries.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  logx.Logger
	now  func() time.Time
}

func NewClient(cfg ClientConfig, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
		now:  time.Now,
	}
}

// Fetch requests statuses updated since cursor (epoch seconds). A cursor <= 0
// means "now". The decoded body is returned untyped; use CheckResponse on it.
func (c *Client) Fetch(ctx context.Context, cursor int64) (any, error) {
	if cursor <= 0 {
		cursor = c.now().Unix()
	}
	params := url.Values{"from_date": []string{strconv.FormatInt(cursor, 10)}}

	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, newError(KindTransport, "", err, "некорректный адрес API %q: %v", c.cfg.Endpoint, err)
	}
	q := u.Query()
	q.Set("from_date", params.Get("from_date"))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, newError(KindTransport, "", err, "не удалось сформировать запрос к API: %v", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Strip the URL wrapper; the query is logged separately and the error text must stay stable across cycles.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, newError(KindTransport, "", err, "сбой при обращении к URL %s: %v; параметры: %s", c.cfg.Endpoint, err, formatParams(params))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, newError(KindTransport, "", ErrEndpointUnavailable,
			"эндпоинт %s недоступен; код ответа: %d", c.cfg.Endpoint, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, newError(KindTransport, "", ErrRequestFailed,
			"сбой при обращении к URL %s; код ответа: %d - %s; параметры: %s",
			resp.Request.URL.Redacted(), resp.StatusCode, reasonPhrase(resp), formatParams(params))
	}
	c.log.Debug("api response received", logx.Int("status", resp.StatusCode), logx.Int64("from_date", cursor))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, newError(KindTransport, "", err, "не удалось прочитать ответ API: %v", err)
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, newError(KindTransport, "", ErrMalformedResponse, "ответ API не может быть обработан: %v", err)
	}
	if dec.More() {
		return nil, newError(KindTransport, "", ErrMalformedResponse, "ответ API не может быть обработан: лишние данные после JSON")
	}
	return out, nil
}

// reasonPhrase returns the text part of "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

func formatParams(v url.Values) string {
	return fmt.Sprintf("{from_date: %s}", v.Get("from_date"))
}
