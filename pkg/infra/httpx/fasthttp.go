package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 5 * time.Second
	DefaultMaxConnsPerHost     = 128
	DefaultMaxIdleConnDuration = 10 * time.Second
	DefaultMaxResponseBodySize = 4 * 1024 * 1024
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=http_client_mock.go --case=underscore --with-expecter
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type FastHTTPClientOptions struct {
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	MaxResponseBodySize int
	UserAgent           string
}

type FastHTTPClientOption func(*FastHTTPClientOptions)

func WithTimeout(timeout time.Duration) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.Timeout = timeout
	}
}

func WithMaxConnsPerHost(max int) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.MaxConnsPerHost = max
	}
}

func WithUserAgent(userAgent string) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.UserAgent = userAgent
	}
}

type fastHTTPClient struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

func NewFastHTTPClient(opts ...FastHTTPClientOption) Client {
	options := &FastHTTPClientOptions{
		Timeout:             DefaultTimeout,
		MaxConnsPerHost:     DefaultMaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &fastHTTPClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     options.MaxConnsPerHost,
			MaxIdleConnDuration: options.MaxIdleConnDuration,
			MaxResponseBodySize: options.MaxResponseBodySize,
			ReadTimeout:         options.Timeout,
			WriteTimeout:        options.Timeout,
		},
		timeout:   options.Timeout,
		userAgent: options.UserAgent,
	}
}

// Do executes req with the earlier of ctx's deadline and the client timeout,
// and returns the decoded body.
func (c *fastHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	fastReq := fasthttp.AcquireRequest()
	fastResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(fastReq)
	defer fasthttp.ReleaseResponse(fastResp)

	method := req.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	fastReq.SetRequestURI(req.URL)
	fastReq.Header.SetMethod(method)
	fastReq.Header.Set("Accept-Encoding", "gzip, br, zstd, deflate")
	if c.userAgent != "" {
		fastReq.Header.SetUserAgent(c.userAgent)
	}
	for k, v := range req.Headers {
		fastReq.Header.Set(k, v)
	}
	if len(req.Body) > 0 {
		fastReq.SetBody(req.Body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.client.DoDeadline(fastReq, fastResp, deadline); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}

	body, _, err := DecodeChain(fastResp, fastResp.Body())
	if err != nil {
		return nil, err
	}
	out := &Response{
		StatusCode: fastResp.StatusCode(),
		Header:     make(http.Header),
		Body:       append([]byte(nil), body...),
	}
	fastResp.Header.VisitAll(func(key, value []byte) {
		out.Header.Add(string(key), string(value))
	})
	return out, nil
}
