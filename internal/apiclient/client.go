package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/domain/repository"
	xhttp "StockWatch/pkg/http"
	"StockWatch/pkg/logger"
)

// registration runs a setup step once and remembers its outcome for every caller.
type registration struct {
	once     sync.Once
	register func() error
	err      error
}

func (r *registration) do() error {
	r.once.Do(func() {
		if err := r.register(); err != nil {
			r.err = fmt.Errorf("apiclient: register validators: %w", err)
		}
	})
	return r.err
}

var validators = &registration{register: func() error {
	return xhttp.RegisterValidators(models.RegisterValidators)
}}

// Client issues typed REST calls against the backend API root,
// e.g. http://localhost:5000/api. It holds no state between calls.
type Client struct {
	baseURL string
	http    *xhttp.Client
	log     *logger.Logger
	metrics repository.Metrics
}

func New(baseURL string, log *logger.Logger, metrics repository.Metrics, opts ...xhttp.ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", baseURL)
	}
	if err := validators.do(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	opts = append([]xhttp.ClientOption{xhttp.WithHeader("Accept", "application/json")}, opts...)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(opts...),
		log:     log,
		metrics: metrics,
	}, nil
}

// BaseURL is the API root requests are issued against.
func (c *Client) BaseURL() string { return c.baseURL }

// call describes one request. route is the templated path used for metrics.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   interface{}
}

func (c *Client) do(ctx context.Context, r call, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      r.method,
		URL:         c.baseURL + r.path,
		QueryParams: r.query,
		Body:        r.body,
	}, dest)

	status := http.StatusOK
	var apiErr *Error
	if err != nil {
		apiErr = toError(err)
		status = apiErr.Status
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(r.method, r.route, status, time.Since(start).Seconds())
	}
	if apiErr != nil {
		c.log.Warn("backend request failed",
			logger.String("method", r.method),
			logger.String("path", r.path),
			logger.Int("status", status),
			logger.String("message", apiErr.Message),
		)
		return apiErr
	}
	return nil
}

// validate applies defaults and validation tags; nothing is sent on failure.
func validate(ctx context.Context, req interface{}) error {
	if errs := xhttp.ValidateRequest(ctx, req); len(errs) > 0 {
		return invalid(errs[0].Message)
	}
	return nil
}

func requireID(id int64) error {
	if id <= 0 {
		return invalid(fmt.Sprintf("id must be positive, got %d", id))
	}
	return nil
}

func requireCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return invalid("ts_code is required")
	}
	return nil
}

func idPath(prefix string, id int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", prefix, id, suffix)
}

// send decodes the response into a fresh envelope of T.
func send[T any](ctx context.Context, c *Client, r call) (*models.Response[T], error) {
	out := new(models.Response[T])
	if err := c.do(ctx, r, out); err != nil {
		return nil, err
	}
	return out, nil
}
