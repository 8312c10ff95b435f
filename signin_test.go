package storyboard

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestSignInPage(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/auth/sign-in?next=/admin/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Continue with Google") {
		t.Errorf("sign-in page missing provider link")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestSignInPageRedirectsSignedInUsers(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signIn("writer@example.com")

	rec := f.get("/auth/sign-in?next=/story/x/", cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/story/x/" {
		t.Fatalf("status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = f.get("/auth/sign-in?next=//evil.example.com/", cookie)
	if rec.Header().Get("Location") != "/" {
		t.Errorf("open redirect to %q", rec.Header().Get("Location"))
	}
}

func TestGoogleSignInStartsAuthorizationFlow(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/auth/google?next=/admin/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Host != "accounts.google.com" {
		t.Errorf("redirected to %s", loc)
	}
	q := loc.Query()
	if q.Get("state") == "" || q.Get("client_id") != "client" {
		t.Errorf("query = %v", q)
	}
	if q.Get("redirect_uri") != testAppURL+"/auth/google/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestGoogleCallbackRejectsUnknownState(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/auth/google/callback?state=forged&code=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "expired") {
		t.Errorf("body does not explain the failure")
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			t.Errorf("session cookie set on failed sign-in")
		}
	}
}

func TestGoogleCallbackProviderError(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/auth/google/callback?error=access_denied")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), signInFailed) {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signIn("writer@example.com")

	rec := f.postForm("/auth/sign-out", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}

	// The old cookie still carries the token, but the session row is gone.
	rec = f.get("/", cookie)
	if strings.Contains(rec.Body.String(), "Sign out") {
		t.Errorf("still signed in after sign-out")
	}
}

func TestSignOutRequiresCSRFToken(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signIn("writer@example.com")
	rec := f.do(newPost("/auth/sign-out"), cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}
