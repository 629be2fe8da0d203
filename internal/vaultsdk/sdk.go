package vaultsdk

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/delorenj/vaultsync/internal/version"
	"github.com/imroc/req/v3"
)

const (
	HeaderUserAgent     = "User-Agent"
	HeaderVersion       = "X-Vaultsync-Version"
	HeaderDeviceID      = "X-Vaultsync-Device"
	HeaderModified      = "X-Vaultsync-Modified"
	HeaderAuthorization = "Authorization"
)

var UserAgent = fmt.Sprintf("vaultsync/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Options configures New
type Options struct {
	// Token is sent as a bearer token when set
	Token string

	// Timeout bounds every request, including retries
	Timeout time.Duration

	// RetryCount is the number of retries for transport errors and 5xx responses
	RetryCount int
}

func DefaultOptions() *Options {
	return &Options{
		Timeout:    30 * time.Second,
		RetryCount: 3,
	}
}

// Client talks to the storage facade
type Client struct {
	client  *req.Client
	baseURL string
}

func New(baseURL string, opts *Options) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrNoServerURL
	}
	if !utils.IsValidURL(baseURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidServerURL, baseURL)
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent(UserAgent).
		SetCommonHeader(HeaderVersion, version.Version).
		SetCommonHeader(HeaderDeviceID, utils.HWID).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal).
		SetCommonRetryCount(opts.RetryCount).
		SetCommonRetryBackoffInterval(500*time.Millisecond, 5*time.Second).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			return err != nil || resp.StatusCode >= 500
		})

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		client.SetCommonBearerAuthToken(opts.Token)
	}

	return &Client{
		client:  client,
		baseURL: baseURL,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}
