package panda

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pandassist/pkg/htmlutil"

	"github.com/go-resty/resty/v2"
)

// the CAS login page only renders this element after a rejected submission
const loginErrorMarker = `<div id="msg" class="errors">`

const fallbackLoginErrorMessage = "the portal rejected the credentials"

// EnsureLoggedIn makes sure the user's session is authenticated, logging in
// with the user's credential when it is not.
//
// When forceReauthenticate is set the current session is discarded first.
// A transient failure is retried exactly once with a fresh session, rejected
// credentials and malformed login pages are returned immediately.
func (c *Client) EnsureLoggedIn(ctx context.Context, user *User, forceReauthenticate bool) error {
	force := forceReauthenticate

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = c.login(ctx, user, force)
		if err == nil {
			return nil
		}
		if attempt > 0 || !retryable(ctx, err) {
			break
		}

		c.tel.ReportWarning(
			report_client_ensure_logged_in,
			fmt.Errorf("retrying with a fresh session: %w", err),
			user.Credential.Username,
		)
		logoutErr := c.Logout(ctx, user)
		if logoutErr != nil {
			c.tel.ReportDebug("logout before retry failed", logoutErr)
		}
		force = false
	}

	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		c.tel.ReportBroken(report_client_ensure_logged_in, err, user.Credential.Username)
	}
	return err
}

func (c *Client) login(ctx context.Context, user *User, force bool) error {
	if force {
		err := c.Logout(ctx, user)
		if err != nil {
			c.tel.ReportDebug("logout before forced login failed", err)
		}
	} else {
		loggedIn, err := c.probe(ctx, user)
		if err != nil {
			return err
		}
		if loggedIn {
			c.tel.ReportDebug("session already authenticated", user.Credential.Username)
			return nil
		}
	}

	res, err := user.session.request(ctx).Get(c.loginUrl)
	if err != nil {
		return &TransientError{Op: "get login page", Err: err}
	}
	if res.IsError() {
		return &TransientError{Op: "get login page", StatusCode: res.StatusCode()}
	}

	body := res.String()
	lt, ltFound := htmlutil.InputValueByName(body, "lt")
	execution, executionFound := htmlutil.InputValueByName(body, "execution")
	if lt == "" || execution == "" {
		// CAS sends an authenticated session straight on to the service
		if finalUrl(res) != c.loginUrl {
			c.tel.ReportDebug("login page redirected, already authenticated", finalUrl(res))
			return nil
		}
		c.tel.ReportWarning(report_client_login, "login form tokens missing", finalUrl(res))
		return &ProtocolError{
			Reason: fmt.Sprintf(
				"login form tokens missing (lt found: %v, execution found: %v)",
				ltFound && lt != "",
				executionFound && execution != "",
			),
		}
	}

	res, err = user.session.request(ctx).
		SetFormData(map[string]string{
			"username":  user.Credential.Username,
			"password":  user.Credential.Password,
			"lt":        lt,
			"execution": execution,
			"_eventId":  "submit",
		}).
		Post(c.loginUrl)
	if err != nil {
		return &TransientError{Op: "submit login form", Err: err}
	}

	body = res.String()
	if strings.Contains(body, loginErrorMarker) {
		message, ok := htmlutil.DivContentByClass(body, "errors")
		if !ok || message == "" {
			message = fallbackLoginErrorMessage
		}
		c.tel.ReportDebug("login rejected", user.Credential.Username, message)
		return &AuthenticationError{Username: user.Credential.Username, Message: message}
	}
	if res.IsError() {
		return &TransientError{Op: "submit login form", StatusCode: res.StatusCode()}
	}

	loggedIn, err := c.probe(ctx, user)
	if err != nil {
		return err
	}
	if !loggedIn {
		return &AuthenticationError{
			Username: user.Credential.Username,
			Message:  "login was accepted but the session is still unauthenticated",
		}
	}

	c.tel.ReportDebug("logged in", user.Credential.Username)
	return nil
}

func finalUrl(res *resty.Response) string {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return res.Request.URL
	}
	return res.RawResponse.Request.URL.String()
}

// probe asks a resource that is only readable while authenticated.
func (c *Client) probe(ctx context.Context, user *User) (bool, error) {
	res, err := user.session.request(ctx).Get(c.endpoint("/direct/content/my"))
	if err != nil {
		return false, &TransientError{Op: "probe session", Err: err}
	}
	switch {
	case res.IsSuccess():
		return true, nil
	case res.StatusCode() == http.StatusForbidden || res.StatusCode() == http.StatusUnauthorized:
		return false, nil
	}
	c.tel.ReportWarning(report_client_probe, res.Status())
	return false, &TransientError{Op: "probe session", StatusCode: res.StatusCode()}
}

// Logout ends the session on both the portal and the CAS server, the local
// session is always reset even when the requests fail.
func (c *Client) Logout(ctx context.Context, user *User) error {
	var errs []error
	for _, path := range []string{"/portal/logout", "/cas/logout"} {
		res, err := user.session.request(ctx).Get(c.endpoint(path))
		if err != nil {
			errs = append(errs, &TransientError{Op: "logout " + path, Err: err})
			continue
		}
		if res.IsError() {
			errs = append(errs, &TransientError{Op: "logout " + path, StatusCode: res.StatusCode()})
		}
	}
	errs = append(errs, user.ResetSession())

	err := errors.Join(errs...)
	if err != nil {
		c.tel.ReportWarning(report_client_logout, err)
	}
	return err
}

// CheckLogin reports whether the user's credential is accepted, starting from a
// fresh session. Rejected credentials are not an error.
func (c *Client) CheckLogin(ctx context.Context, user *User) (bool, error) {
	err := user.ResetSession()
	if err != nil {
		return false, err
	}
	err = c.EnsureLoggedIn(ctx, user, false)
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
