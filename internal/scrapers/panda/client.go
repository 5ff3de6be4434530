// client.go wires the portal's urls, clock and telemetry together, the actual
// scraping lives in auth.go and fetch.go.

package panda

import (
	"fmt"
	"net/url"
	"strings"

	"pandassist/internal/components/assert"
	"pandassist/internal/components/chrono"
	"pandassist/internal/components/telemetry"
)

// DefaultBaseUrl is Kyoto University's PandA deployment.
const DefaultBaseUrl = "https://panda.ecs.kyoto-u.ac.jp"

const (
	report_client_ensure_logged_in = "client.ensure-logged-in"
	report_client_login            = "client.login"
	report_client_logout           = "client.logout"
	report_client_probe            = "client.probe"
	report_client_get_json         = "client.get-json"
	report_client_fetch_sites      = "client.fetch-sites"
	report_client_fetch_assignment = "client.fetch-assignments"
	report_client_resolve_sites    = "client.resolve-sites"
)

type ClientOptions struct {
	// BaseUrl is the portal root, DefaultBaseUrl when empty.
	BaseUrl string
	Session SessionOptions
	// MaxConcurrency bounds parallel site lookups, zero means 4.
	MaxConcurrency int
}

// Client performs authentication and data fetches against a Sakai portal on
// behalf of any number of users, it holds no per-user state itself.
type Client struct {
	baseUrl        *url.URL
	loginUrl       string
	opts           ClientOptions
	maxConcurrency int

	time chrono.API
	tel  telemetry.API
}

func NewClient(opts ClientOptions, clock chrono.API, tel telemetry.API) (*Client, error) {
	assert.NotNil(clock)
	assert.NotNil(tel)

	rawBase := opts.BaseUrl
	if rawBase == "" {
		rawBase = DefaultBaseUrl
	}
	rawBase = strings.TrimRight(rawBase, "/")
	baseUrl, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url '%s' must be absolute", rawBase)
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	service := url.QueryEscape(rawBase + "/sakai-login-tool/container")
	return &Client{
		baseUrl:        baseUrl,
		loginUrl:       rawBase + "/cas/login?service=" + service,
		opts:           opts,
		maxConcurrency: maxConcurrency,
		time:           clock,
		tel:            telemetry.NewScopedAPI("panda", tel),
	}, nil
}

// LoginUrl is the CAS login page, the service parameter points back at the
// portal's login tool.
func (c *Client) LoginUrl() string {
	return c.loginUrl
}

func (c *Client) endpoint(path string) string {
	return c.baseUrl.String() + path
}

// NewUser creates a user with a fresh, logged out session.
// The username must not be empty.
func (c *Client) NewUser(cred Credential) (*User, error) {
	assert.NotEmptyStr(cred.Username)

	session, err := newSession(c.baseUrl, c.opts.Session, c.tel)
	if err != nil {
		return nil, err
	}
	return &User{Credential: cred, session: session}, nil
}

// CurrentSemester is the semester keyword for the client's clock.
func (c *Client) CurrentSemester() string {
	return CurrentSemester(c.time.Now())
}
