package panda

import (
	"context"
	"math"
	"net/http/cookiejar"
	"net/url"
	"time"

	"pandassist/internal/components/assert"
	"pandassist/internal/components/telemetry"
	"pandassist/pkg/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Credential is a username and password pair for the portal's CAS server.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionOptions tunes the http client every User gets.
type SessionOptions struct {
	// Timeout bounds a single request including redirects, zero means 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond throttles a single session, zero means 4 and a negative
	// value disables throttling.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport to look like a desktop browser.
	CloudflareBypass bool
	UserAgent        string
	// Output receives every completed http exchange when non-nil.
	Output restyutil.InstrumentOutput
}

// Session is an http client bound to a cookie store, the cookie store is what
// makes a user "logged in".
//
// A Session is not meant to be shared by concurrent logins, concurrent data
// fetches are fine as long as nothing resets it in the meantime.
type Session struct {
	http *resty.Client
}

func newCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
}

func newSession(baseUrl *url.URL, opts SessionOptions, tel telemetry.API) (*Session, error) {
	assert.NotNil(baseUrl)
	assert.NotNil(tel)

	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(baseUrl.Hostname()),
	)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	// burst equal to the rate so that no request is ever dropped, only delayed
	limit, burst := rate.Limit(4), 4
	switch rps := opts.RequestsPerSecond; {
	case rps < 0:
		limit, burst = rate.Inf, 1
	case rps > 0:
		limit, burst = rate.Limit(rps), max(1, int(math.Ceil(rps)))
	}
	rateLimiter := rate.NewLimiter(limit, burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel, opts.Output)

	return &Session{http: client}, nil
}

func (s *Session) request(ctx context.Context) *resty.Request {
	return s.http.R().SetContext(ctx)
}

// Reset drops every cookie the session holds.
func (s *Session) Reset() error {
	jar, err := newCookieJar()
	if err != nil {
		return err
	}
	s.http.SetCookieJar(jar)
	return nil
}

// User is a credential together with the session it is logged in with.
type User struct {
	Credential Credential
	session    *Session
}

// ResetSession discards the user's cookies, the next request starts logged out.
func (u *User) ResetSession() error {
	return u.session.Reset()
}
