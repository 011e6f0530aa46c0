package handlers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	mrand "math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/dungeon-sweeper/internal/config"
	"github.com/vancomm/dungeon-sweeper/internal/countdown"
	"github.com/vancomm/dungeon-sweeper/internal/dungeon"
	"github.com/vancomm/dungeon-sweeper/internal/game"
	"github.com/vancomm/dungeon-sweeper/internal/middleware"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
	"github.com/vancomm/dungeon-sweeper/internal/repository"
	"github.com/vancomm/dungeon-sweeper/internal/sessions"
)

func TestByPiece(t *testing.T) {
	testCases := []struct {
		input string
		sep   string
		array []string
	}{
		{"a b c", " ", []string{"a", "b", "c"}},
		{"foo\nbar\nbaz\n\nbazz", "\n", []string{"foo", "bar", "baz", "", "bazz"}},
	}
	for _, test := range testCases {
		var got []string
		for _, p := range byPiece(test.input, test.sep) {
			got = append(got, p)
		}
		assert.Equal(t, test.array, got)
	}
}

type testServer struct {
	*httptest.Server
	registry *sessions.Registry
	cookies  *config.Cookies
	players  *fakePlayers
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	j, err := config.NewJWTFromKeys(key, &key.PublicKey, time.Hour)
	require.NoError(t, err)
	cookies := config.NewCookies(&config.Config{Mode: "development"}, j)

	registry := sessions.NewRegistry(sessions.Options{
		Rules:   game.DefaultRules(),
		Clock:   countdown.NewManualClock(time.Unix(0, 0)),
		Log:     log,
		NewRand: func() *mrand.Rand { return mrand.New(mrand.NewPCG(1, 2)) },
	})
	players := &fakePlayers{byName: map[string]*repository.Player{}}
	s := NewSessions(log, registry)
	auth := NewAuth(log, players, cookies)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/register", auth.Register)
	mux.HandleFunc("POST /v1/login", auth.Login)
	mux.HandleFunc("POST /v1/logout", auth.Logout)
	mux.HandleFunc("GET /v1/status", auth.Status)
	mux.HandleFunc("POST /v1/session", s.Create)
	mux.HandleFunc("GET /v1/session/{id}", s.Get)
	mux.HandleFunc("DELETE /v1/session/{id}", s.Delete)
	mux.HandleFunc("POST /v1/session/{id}/reveal", s.Reveal())
	mux.HandleFunc("POST /v1/session/{id}/flag", s.Flag())
	mux.HandleFunc("POST /v1/session/{id}/advance", s.Advance())
	mux.HandleFunc("POST /v1/session/{id}/revive", s.Revive())
	mux.HandleFunc("POST /v1/session/{id}/xray", s.XRay())
	mux.HandleFunc("POST /v1/session/{id}/scan", s.Scan)
	mux.HandleFunc("GET /v1/session/{id}/connect", s.Connect)

	srv := httptest.NewServer(middleware.Wrap(mux, middleware.Auth(log, cookies)))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, registry: registry, cookies: cookies, players: players}
}

func (s *testServer) post(t *testing.T, path string) (*http.Response, *SessionDTO) {
	t.Helper()
	res, err := http.Post(s.URL+path, "", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	var dto SessionDTO
	if res.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&dto))
	}
	return res, &dto
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t)

	res, created := srv.post(t, "/v1/session")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, mines.NotStarted, created.State.State)
	assert.Equal(t, 8, created.State.Size)
	base := "/v1/session/" + created.SessionId

	res, revealed := srv.post(t, base+"/reveal?index=0")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotNil(t, revealed.Outcome)
	assert.True(t, revealed.Outcome.Started)
	assert.Equal(t, mines.Active, revealed.State.State)
	assert.True(t, revealed.State.Bleeding)
	for i, sq := range revealed.State.Squares {
		assert.False(t, sq.Mine, "square %d", i)
	}

	res, _ = srv.post(t, base+"/advance")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res, _ = srv.post(t, base+"/revive")
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, err := http.Get(srv.URL + base)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSessionBadRequests(t *testing.T) {
	srv := newTestServer(t)
	_, created := srv.post(t, "/v1/session")
	base := "/v1/session/" + created.SessionId

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing index", base + "/reveal", http.StatusBadRequest},
		{"index not a number", base + "/reveal?index=x", http.StatusBadRequest},
		{"index out of range", base + "/flag?index=64", http.StatusBadRequest},
		{"malformed id", "/v1/session/nope/reveal?index=0", http.StatusBadRequest},
		{"unknown id", "/v1/session/" + created.RunId + "/reveal?index=0", http.StatusNotFound},
		{"scan before start", base + "/scan?index=1", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := srv.post(t, tt.path)
			assert.Equal(t, tt.status, res.StatusCode)
		})
	}
}

func TestRevivalOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	_, created := srv.post(t, "/v1/session")
	base := "/v1/session/" + created.SessionId
	srv.post(t, base+"/reveal?index=0")

	_, xrayed := srv.post(t, base+"/xray")
	require.True(t, xrayed.State.MinesVisible)
	mine := -1
	for i, sq := range xrayed.State.Squares {
		if sq.Mine {
			mine = i
			break
		}
	}
	require.NotEqual(t, -1, mine)

	_, dead := srv.post(t, fmt.Sprintf("%s/reveal?index=%d", base, mine))
	require.Equal(t, mines.GameOver, dead.State.State)

	res, revived := srv.post(t, base+"/revive")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, mines.Active, revived.State.State)
	assert.Equal(t, 2, revived.State.Items.SuperStar)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	_, created := srv.post(t, "/v1/session")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/session/"+created.SessionId, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Zero(t, srv.registry.Len())
}

func TestWebsocketCommands(t *testing.T) {
	srv := newTestServer(t)
	_, created := srv.post(t, "/v1/session")

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/v1/session/" + created.SessionId + "/connect"
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	var reply wsReply
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("g")))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, mines.NotStarted, reply.State.State)
	assert.Empty(t, reply.Errors)

	reply = wsReply{}
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("o 0\nf 63\nz\nr")))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, mines.Active, reply.State.State)
	assert.Equal(t, []string{ErrUnknownCommand.Error(), game.ErrNotGameOver.Error()}, reply.Errors)
}

func TestExecuteCommand(t *testing.T) {
	s, err := game.NewSession(game.DefaultRules(), mrand.New(mrand.NewPCG(1, 2)),
		countdown.NewManualClock(time.Unix(0, 0)), game.Listeners{})
	require.NoError(t, err)

	tests := []struct {
		cmd string
		err error
	}{
		{"g", nil},
		{"o 0", nil},
		{"f", ErrCommandNargs},
		{"o 1 2", ErrCommandNargs},
		{"o 64", game.ErrInvalidIndex},
		{"q", ErrUnknownCommand},
		{"", ErrUnknownCommand},
		{"r", game.ErrNotGameOver},
		{"n", game.ErrFloorNotCleared},
		{"x", nil},
		{"x", dungeon.ErrCooldown},
	}
	for _, tt := range tests {
		err := executeCommand(s, tt.cmd)
		if tt.err == nil {
			assert.NoError(t, err, "command %q", tt.cmd)
			continue
		}
		assert.ErrorIs(t, err, tt.err, "command %q", tt.cmd)
	}

	err = executeCommand(s, "o x")
	assert.Error(t, err)
}

type fakePlayers struct {
	mu     sync.Mutex
	byName map[string]*repository.Player
}

func (f *fakePlayers) CreatePlayer(_ context.Context, params repository.CreatePlayerParams) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[params.Username]; ok {
		return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	p := &repository.Player{
		PlayerId:     int64(len(f.byName) + 1),
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
	}
	f.byName[p.Username] = p
	return p, nil
}

func (f *fakePlayers) FetchPlayer(_ context.Context, username string) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func postForm(t *testing.T, srv *testServer, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := http.Post(srv.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	res.Body.Close()
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	form := url.Values{"username": {"rogue"}, "password": {"hunter2"}}

	res := postForm(t, srv, "/v1/register", form)
	require.Equal(t, http.StatusOK, res.StatusCode)
	names := []string{}
	for _, c := range res.Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"auth", "sign"}, names)

	res = postForm(t, srv, "/v1/register", form)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = postForm(t, srv, "/v1/login", form)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = postForm(t, srv, "/v1/login", url.Values{"username": {"rogue"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = postForm(t, srv, "/v1/login", url.Values{"username": {"bard"}, "password": {"x"}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = postForm(t, srv, "/v1/register", url.Values{"username": {"bard"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postForm(t, srv, "/v1/register", url.Values{"username": {"bard"}, "password": {strings.Repeat("a", 73)}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	stored := srv.players.byName["rogue"]
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("hunter2")))
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)
	res := postForm(t, srv, "/v1/register", url.Values{"username": {"mage"}, "password": {"pw"}})
	require.Equal(t, http.StatusOK, res.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/status", nil)
	require.NoError(t, err)
	for _, c := range res.Cookies() {
		req.AddCookie(c)
	}
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var status Status
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	assert.True(t, status.LoggedIn)
	require.NotNil(t, status.Player)
	assert.Equal(t, "mage", status.Player.Username)

	res, err = http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	defer res.Body.Close()
	status = Status{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	assert.False(t, status.LoggedIn)
}

func TestSessionCreatedByPlayerIsOwned(t *testing.T) {
	srv := newTestServer(t)
	res := postForm(t, srv, "/v1/register", url.Values{"username": {"knight"}, "password": {"pw"}})
	require.Equal(t, http.StatusOK, res.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/session", nil)
	require.NoError(t, err)
	for _, c := range res.Cookies() {
		req.AddCookie(c)
	}
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var dto SessionDTO
	require.NoError(t, json.NewDecoder(res.Body).Decode(&dto))

	e, err := srv.registry.Get(uuid.MustParse(dto.SessionId))
	require.NoError(t, err)
	require.NotNil(t, e.PlayerId)
	assert.Equal(t, int64(1), *e.PlayerId)
}

type fakeRecords struct {
	options int
}

func (f *fakeRecords) GetRecords(_ context.Context, options ...repository.RecordsOption) ([]repository.Record, error) {
	f.options = len(options)
	name := "rogue"
	return []repository.Record{{RunId: "r1", Username: &name, Rank: 4, Status: repository.RunGameOver}}, nil
}

func TestRecordsList(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := &fakeRecords{}
	h := NewRecords(log, store)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/v1/records?username=rogue&limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, store.options)
	var records []repository.Record
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, 4, records[0].Rank)

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/v1/records?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
