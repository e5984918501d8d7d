package loader

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// HTTPClient fetches remote bytes during a load. Loaders take it as an
// interface so tests can stub the traffic.
type HTTPClient interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

type restyHTTPClient struct {
	client *resty.Client
}

// NewHTTPClient returns the production HTTPClient backed by resty.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &restyHTTPClient{client: resty.New().SetTimeout(timeout)}
}

func (c *restyHTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", url)
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetch %s: unexpected status %s", url, resp.Status())
	}
	return resp.Body(), nil
}
