package apikit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported request methods
var supportedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Map for quick validation
var methodMap map[string]bool

func init() {
	methodMap = make(map[string]bool)
	for _, method := range supportedMethods {
		methodMap[method] = true
	}
}

func isValidMethod(method string) bool {
	return methodMap[method]
}

// Request describes a single dispatch. Params are placed in the query string
// for GET and DELETE; Body is placed in the request body for POST, PUT and
// PATCH. Body is JSON-encoded unless form encoding is selected on the client
// or forced with Form.
type Request struct {
	Method string
	Path   string
	Params map[string]string
	Body   interface{}
	Header map[string]string
	Form   bool
}

// Client dispatches requests through one of two pre-configured resty
// instances: the real one, or a mock one backed by an in-process handler.
type Client struct {
	real    *resty.Client
	mock    *resty.Client
	useMock bool

	form      bool
	onSuccess []SuccessHook
	onError   []ErrorHook
	single    *singleGroup
	log       zerolog.Logger
}

type options struct {
	baseURL     string
	timeout     time.Duration
	headers     map[string]string
	userAgent   string
	authToken   string
	basicUser   string
	basicPass   string
	form        bool
	mockHandler http.Handler
	useMock     bool
	onSuccess   []SuccessHook
	onError     []ErrorHook
	singleTTL   time.Duration
	logger      *zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL sets the base URL prepended to request paths.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithTimeout sets the per-request timeout on both instances.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithAuthToken sends the token as a bearer Authorization header.
func WithAuthToken(token string) Option {
	return func(o *options) { o.authToken = token }
}

// WithBasicAuth sends basic-auth credentials with every request.
func WithBasicAuth(user, pass string) Option {
	return func(o *options) {
		o.basicUser = user
		o.basicPass = pass
	}
}

// WithFormEncoding switches the default body encoding from JSON to
// application/x-www-form-urlencoded.
func WithFormEncoding() Option {
	return func(o *options) { o.form = true }
}

// WithMockHandler configures the mock instance to serve every request from
// the given handler, in process.
func WithMockHandler(h http.Handler) Option {
	return func(o *options) { o.mockHandler = h }
}

// WithMock selects the mock instance for all dispatches.
func WithMock() Option {
	return func(o *options) { o.useMock = true }
}

// WithSuccessHook registers a hook invoked after every 2xx response.
func WithSuccessHook(h SuccessHook) Option {
	return func(o *options) { o.onSuccess = append(o.onSuccess, h) }
}

// WithErrorHook registers a hook invoked after every failed request.
func WithErrorHook(h ErrorHook) Option {
	return func(o *options) { o.onError = append(o.onError, h) }
}

// WithSingleTTL keeps successful SingleGet responses for d, answering
// repeated singleGets for the same URL from memory. Zero disables the cache.
func WithSingleTTL(d time.Duration) Option {
	return func(o *options) { o.singleTTL = d }
}

// WithLogger overrides the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	o := &options{
		timeout:   10 * time.Second,
		userAgent: "apikit",
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	c := &Client{
		real:      configureInstance(resty.New(), o),
		useMock:   o.useMock,
		form:      o.form,
		onSuccess: o.onSuccess,
		onError:   o.onError,
		single:    newSingleGroup(o.singleTTL),
		log:       logger,
	}

	if o.mockHandler != nil {
		mock := configureInstance(resty.New(), o)
		mock.SetTransport(&handlerTransport{handler: o.mockHandler})
		c.mock = mock
	}

	logger.Debug().
		Str("baseURL", o.baseURL).
		Dur("timeout", o.timeout).
		Bool("mock", c.useMock).
		Bool("formEncoding", c.form).
		Msg("API client configured")

	return c
}

// configureInstance applies the shared defaults to a resty instance.
func configureInstance(rc *resty.Client, o *options) *resty.Client {
	rc.SetTimeout(o.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", o.userAgent)

	if o.baseURL != "" {
		rc.SetBaseURL(o.baseURL)
	}
	for k, v := range o.headers {
		rc.SetHeader(k, v)
	}
	if o.authToken != "" {
		rc.SetAuthToken(o.authToken)
	}
	if o.basicUser != "" {
		rc.SetBasicAuth(o.basicUser, o.basicPass)
	}
	return rc
}

// instance returns the resty client requests are dispatched through.
func (c *Client) instance() *resty.Client {
	if c.useMock && c.mock != nil {
		return c.mock
	}
	return c.real
}

// Get issues a GET request with params in the query string.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Params: params})
}

// Delete issues a DELETE request with params in the query string.
func (c *Client) Delete(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Params: params})
}

// Post issues a POST request with body in the request body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with body in the request body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with body in the request body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Do dispatches a single request and maps the result. Non-2xx responses are
// returned as a *StatusError alongside the decoded Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if !isValidMethod(req.Method) {
		return nil, fmt.Errorf("unsupported method %q", req.Method)
	}

	requestID := uuid.NewString()

	rr := c.instance().R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)

	for k, v := range req.Header {
		rr.SetHeader(k, v)
	}

	switch req.Method {
	case http.MethodGet, http.MethodDelete:
		if len(req.Params) > 0 {
			rr.SetQueryParams(req.Params)
		}
	default:
		if req.Body != nil {
			if c.form || req.Form {
				form, err := toFormData(req.Body)
				if err != nil {
					return nil, err
				}
				rr.SetFormData(form)
			} else {
				rr.SetBody(req.Body)
			}
		}
	}

	resp, err := rr.Execute(req.Method, req.Path)
	if err != nil {
		c.log.Error().
			Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Str("requestID", requestID).
			Msg("Request failed")
		c.notifyError(nil, err)
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.Path, err)
	}

	res := &Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Duration:   resp.Time(),
		RequestID:  requestID,
	}

	if resp.IsError() {
		statusErr := &StatusError{
			Code:      res.StatusCode,
			Status:    res.Status,
			Body:      res.Body,
			RequestID: requestID,
		}
		c.log.Error().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", res.StatusCode).
			Str("requestID", requestID).
			Str("responseBody", string(res.Body)).
			Msg("Request returned an error status")
		c.notifyError(res, statusErr)
		return res, statusErr
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", res.StatusCode).
		Dur("duration", res.Duration).
		Str("requestID", requestID).
		Msg("Request completed")
	c.notifySuccess(res)

	return res, nil
}

// toFormData converts a request body to form fields.
func toFormData(body interface{}) (map[string]string, error) {
	switch v := body.(type) {
	case map[string]string:
		return v, nil
	case url.Values:
		form := make(map[string]string, len(v))
		for key := range v {
			form[key] = v.Get(key)
		}
		return form, nil
	case map[string]interface{}:
		form := make(map[string]string, len(v))
		for key, val := range v {
			form[key] = fmt.Sprint(val)
		}
		return form, nil
	default:
		return nil, fmt.Errorf("unsupported form body type %T", body)
	}
}
