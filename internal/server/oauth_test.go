package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// newTokenServer fakes the provider's token endpoint.
func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newHandler(t *testing.T) *OAuthHandler {
	t.Helper()

	tokens := newTokenServer(t)
	config := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokens.URL},
		RedirectURL:  "http://localhost:8910/callback",
	}
	return NewOAuthHandler(config, "state-1")
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges the code and delivers the token", func(t *testing.T) {
		h := newHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=good-code", nil)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed in to chapgen") {
			t.Error("expected the success page")
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token.AccessToken != "at-1" {
			t.Errorf("unexpected token: %+v", result.Token)
		}

		// channel closes after the single result
		if _, open := <-h.Result(); open {
			t.Error("expected the result channel closed")
		}
	})

	t.Run("rejects a state mismatch", func(t *testing.T) {
		h := newHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=good-code", nil)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "invalid state") {
			t.Errorf("expected a state error, got %v", result.Error())
		}
	})

	t.Run("surfaces a provider denial", func(t *testing.T) {
		h := newHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&error=access_denied&error_description=user+cancelled", nil)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected the provider error, got %v", result.Error())
		}
	})

	t.Run("failed exchange is reported", func(t *testing.T) {
		h := newHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=bad-code", nil)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "token exchange failed") {
			t.Errorf("expected an exchange error, got %v", result.Error())
		}
	})

	t.Run("second callback is refused", func(t *testing.T) {
		h := newHandler(t)

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=good-code", nil))

		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=good-code", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for the replay, got %d", second.Code)
		}
	})

	t.Run("routes", func(t *testing.T) {
		h := newHandler(t)
		routes := h.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes: %v", routes)
		}
	})
}
