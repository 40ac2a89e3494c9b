// Package arcsdk is the client SDK for the archive server API.
package arcsdk

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"

	"github.com/openarchive/arcsync/internal/version"
)

const (
	HeaderUserAgent  = "User-Agent"
	HeaderArcVersion = "X-Arc-Version"
)

// Client is the entry point for talking to an archive server.
type Client struct {
	http    *req.Client
	baseURL string
}

// New creates a new archive API client. token may be empty for anonymous
// read access.
func New(baseURL string, token string) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoServerURL
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetCommonHeader(HeaderUserAgent, "ArcSync/"+version.Version).
		SetCommonHeader(HeaderArcVersion, version.Version).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if token != "" {
		client.SetCommonBearerAuthToken(token)
	}

	return &Client{
		http:    client,
		baseURL: baseURL,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// Collection resolves a collection handle by its identifier. The returned
// handle is safe for concurrent queries.
func (c *Client) Collection(ctx context.Context, identifier string) (*Collection, error) {
	var info CollectionInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&info).
		Get(fmt.Sprintf("/api/v1/collections/%s", identifier))

	if resp != nil && resp.StatusCode == 404 {
		return nil, fmt.Errorf("collection %q: %w", identifier, ErrCollectionNotFound)
	}
	if err := handleAPIError(resp, err, "get collection"); err != nil {
		return nil, err
	}

	return &Collection{client: c.http, info: info}, nil
}
