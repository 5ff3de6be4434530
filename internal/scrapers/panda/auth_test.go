package panda

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureLoggedInFreshSession(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)
	ctx := context.Background()

	err := client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, portal.count("login-page"))
	require.Equal(t, 1, portal.count("login-submit"))

	// an authenticated session only needs the probe
	probes := portal.count("probe")
	err = client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, probes+1, portal.count("probe"))
	require.Equal(t, 1, portal.count("login-page"))
	require.Equal(t, 1, portal.count("login-submit"))
}

func TestLoginSubmitsOnlyCasFormFields(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)

	err := client.EnsureLoggedIn(context.Background(), user, false)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, loginFormFields, portal.loginFields())
}

func TestEnsureLoggedInRejectedCredentials(t *testing.T) {
	table := []struct {
		name            string
		emptyMessage    bool
		expectedMessage string
	}{
		{name: "portal message", expectedMessage: rejectedMessage},
		{name: "empty message", emptyMessage: true, expectedMessage: fallbackLoginErrorMessage},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			portal := newFakePortal(t)
			portal.configure(func(p *fakePortal) {
				p.emptyErrorMessage = row.emptyMessage
			})
			client, tel := portal.newClient(t)
			user := portal.newUser(t, client, "wrong password")

			err := client.EnsureLoggedIn(context.Background(), user, false)
			var authErr *AuthenticationError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, row.expectedMessage, authErr.Message)
			require.Equal(t, portalUsername, authErr.Username)

			// rejected credentials are never retried
			require.Equal(t, 1, portal.count("login-submit"))
			require.Equal(t, 1, portal.count("login-page"))
			require.Empty(t, tel.Reports("broken"))
		})
	}
}

func TestEnsureLoggedInMissingTokens(t *testing.T) {
	portal := newFakePortal(t)
	portal.configure(func(p *fakePortal) {
		p.omitTokens = true
	})
	client, tel := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)

	err := client.EnsureLoggedIn(context.Background(), user, false)
	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	require.Contains(t, protocolErr.Reason, "lt found: false")
	require.Equal(t, 1, portal.count("login-page"))
	require.Equal(t, 0, portal.count("login-submit"))
	require.Len(t, tel.Reports("broken"), 1)
}

func TestEnsureLoggedInCasRedirectMeansAuthenticated(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)
	ctx := context.Background()

	err := client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}

	// the portal forgot the session but CAS did not, the login page sends
	// the client straight back to the portal without tokens
	portal.expirePortalSessions()
	err = client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, portal.count("login-page"))
	require.Equal(t, 1, portal.count("login-submit"))

	ok, err := client.probe(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)
}

func TestEnsureLoggedInForce(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)
	ctx := context.Background()

	err := client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	err = client.EnsureLoggedIn(ctx, user, true)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 1, portal.count("portal-logout"))
	require.Equal(t, 1, portal.count("cas-logout"))
	require.Equal(t, 2, portal.count("login-submit"))
}

func TestEnsureLoggedInRetriesTransientFailure(t *testing.T) {
	portal := newFakePortal(t)
	portal.configure(func(p *fakePortal) {
		p.loginPageFailures = []int{http.StatusBadGateway}
	})
	client, tel := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)

	err := client.EnsureLoggedIn(context.Background(), user, false)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, portal.count("login-page"))
	require.Equal(t, 1, portal.count("login-submit"))
	// the retry starts from a fresh session after tearing the old one down
	require.Equal(t, 1, portal.count("portal-logout"))
	require.Equal(t, 1, portal.count("cas-logout"))

	warnings := tel.Reports("warning")
	found := false
	for _, w := range warnings {
		if w.Id == "panda: "+report_client_ensure_logged_in {
			found = true
		}
	}
	require.True(t, found, "expected a retry warning, got %v", warnings)
}

func TestEnsureLoggedInGivesUpAfterSecondAttempt(t *testing.T) {
	portal := newFakePortal(t)
	portal.configure(func(p *fakePortal) {
		p.loginPageFailures = []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusBadGateway}
	})
	client, tel := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)

	err := client.EnsureLoggedIn(context.Background(), user, false)
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	require.Equal(t, http.StatusServiceUnavailable, transient.StatusCode)
	require.Equal(t, 2, portal.count("login-page"))
	require.Equal(t, 0, portal.count("login-submit"))
	require.Len(t, tel.Reports("broken"), 1)
}

func TestEnsureLoggedInAcceptedButUnauthenticated(t *testing.T) {
	portal := newFakePortal(t)
	portal.configure(func(p *fakePortal) {
		p.swallowLogin = true
	})
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)

	err := client.EnsureLoggedIn(context.Background(), user, false)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, 1, portal.count("login-submit"))
}

func TestEnsureLoggedInCanceledContext(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.EnsureLoggedIn(ctx, user, false)
	require.Error(t, err)
	require.False(t, retryable(ctx, err))
	require.Equal(t, 0, portal.count("login-page"))
	require.Equal(t, 0, portal.count("portal-logout"))
}

func TestLogoutResetsSession(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)
	ctx := context.Background()

	err := client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	err = client.Logout(ctx, user)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := client.probe(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)
}

func TestResetSessionDropsCookies(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	user := portal.newUser(t, client, portalPassword)
	ctx := context.Background()

	err := client.EnsureLoggedIn(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	err = user.ResetSession()
	if err != nil {
		t.Fatal(err)
	}

	ok, err := client.probe(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)
}

func TestCheckLogin(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := portal.newClient(t)
	ctx := context.Background()

	ok, err := client.CheckLogin(ctx, portal.newUser(t, client, portalPassword))
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)

	ok, err = client.CheckLogin(ctx, portal.newUser(t, client, "nope"))
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)

	portal.configure(func(p *fakePortal) {
		p.omitTokens = true
	})
	ok, err = client.CheckLogin(ctx, portal.newUser(t, client, portalPassword))
	require.False(t, ok)
	var protocolErr *ProtocolError
	require.True(t, errors.As(err, &protocolErr))
}

func TestLoginUrl(t *testing.T) {
	client, err := NewClient(ClientOptions{}, fixedClock(), nopTelemetry())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(
		t,
		"https://panda.ecs.kyoto-u.ac.jp/cas/login?service=https%3A%2F%2Fpanda.ecs.kyoto-u.ac.jp%2Fsakai-login-tool%2Fcontainer",
		client.LoginUrl(),
	)

	_, err = NewClient(ClientOptions{BaseUrl: "panda.local"}, fixedClock(), nopTelemetry())
	require.Error(t, err)
}

func TestNewUserRequiresUsername(t *testing.T) {
	client, err := NewClient(ClientOptions{}, fixedClock(), nopTelemetry())
	if err != nil {
		t.Fatal(err)
	}
	require.Panics(t, func() {
		client.NewUser(Credential{Password: portalPassword})
	})

	user, err := client.NewUser(Credential{Username: portalUsername, Password: portalPassword})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, portalUsername, user.Credential.Username)
}
