package kvrouter

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kvrouter/utils/log"

	"go.uber.org/zap"
)

// BackendClient posts commands to the backend as urlencoded forms.
type BackendClient struct {
	target BackendTarget
	url    string
	http   *http.Client
}

type ClientOption func(c *BackendClient)

// WithTimeout bounds each backend call. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *BackendClient) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *BackendClient) {
		c.http = hc
	}
}

func Connect(target BackendTarget, opts ...ClientOption) *BackendClient {
	c := &BackendClient{
		target: target,
		url:    target.URL(),
		http:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BackendClient) Target() BackendTarget {
	return c.target
}

// Forward implements Forwarder.
func (c *BackendClient) Forward(ctx context.Context, req *OutboundRequest) (string, error) {
	start := time.Now()
	body := req.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return "", &BackendError{Target: c.target, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Error("backend call failed", zap.String("backend", c.target.Addr()),
			zap.String("cmd", req.Command()), zap.Error(err))
		return "", &BackendError{Target: c.target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Target: c.target, Err: err}
	}
	log.Debug("backend replied", zap.String("backend", c.target.Addr()),
		zap.String("cmd", req.Command()), zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)), zap.Duration("elapsed", time.Since(start)))
	return string(data), nil
}

func (c *BackendClient) Get(ctx context.Context, key string) (string, error) {
	return c.call(ctx, CmdGet, url.Values{FieldKey: {key}})
}

func (c *BackendClient) Set(ctx context.Context, key string, value string) (string, error) {
	return c.call(ctx, CmdSet, url.Values{FieldKey: {key}, FieldValue: {value}})
}

func (c *BackendClient) Remove(ctx context.Context, key string) (string, error) {
	return c.call(ctx, CmdRem, url.Values{FieldKey: {key}})
}

// Add registers a weighted node with the backend registry.
func (c *BackendClient) Add(ctx context.Context, ip, port, weight string) (string, error) {
	return c.call(ctx, CmdAdd, url.Values{FieldIP: {ip}, FieldPort: {port}, FieldWeight: {weight}})
}

// Del removes a node from the backend registry.
func (c *BackendClient) Del(ctx context.Context, ip, port string) (string, error) {
	return c.call(ctx, CmdDel, url.Values{FieldIP: {ip}, FieldPort: {port}})
}

func (c *BackendClient) call(ctx context.Context, cmd string, in url.Values) (string, error) {
	req, err := buildCommand(cmd, in)
	if err != nil {
		return "", err
	}
	return c.Forward(ctx, req)
}
