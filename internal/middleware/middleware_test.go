package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/dungeon-sweeper/internal/config"
)

func newCookies(t *testing.T) *config.Cookies {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	j, err := config.NewJWTFromKeys(key, &key.PublicKey, time.Hour)
	require.NoError(t, err)
	return config.NewCookies(&config.Config{Mode: "development"}, j)
}

func TestWrapOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				h.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(http.NotFoundHandler(), mark("inner"), mark("outer"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthStoresClaims(t *testing.T) {
	cookies := newCookies(t)
	log, _ := test.NewNullLogger()
	var got *config.PlayerClaims
	h := Auth(log, cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PlayerClaims(r)
	}))

	signed := httptest.NewRecorder()
	require.NoError(t, cookies.SignIn(signed, 9, "mage"))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range signed.Result().Cookies() {
		r.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.PlayerId)
}

func TestAuthLetsAnonymousThrough(t *testing.T) {
	log, _ := test.NewNullLogger()
	called := false
	h := Auth(log, newCookies(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := PlayerClaims(r)
		assert.False(t, ok)
		called = true
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
}

func TestLoggingRecordsStatus(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/v1/status", entry.Data["uri"])
}

func TestCorsPreflight(t *testing.T) {
	h := Cors(false, "dungeon.example")(http.NotFoundHandler())

	r := httptest.NewRequest(http.MethodOptions, "/v1/session", nil)
	r.Header.Set("Origin", "https://dungeon.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "https://dungeon.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
