package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	p "github.com/icebreakr/icebreakr-backend/persistence"
)

type mockSqlClient struct {
	findStatus p.Status
	created    *p.UserRecord
}

func (mc *mockSqlClient) CreateRecord(ur p.UserRecord) p.Status {
	mc.created = &ur
	return p.CREATED
}

func (mc *mockSqlClient) UpdateRecord(string, map[string]string) p.Status {
	return p.UPDATED
}

func (mc *mockSqlClient) RetrieveRecords(map[string]string) ([]p.UserRecord, p.Status) {
	return nil, mc.findStatus
}

func (mc *mockSqlClient) DeleteRecord(string) p.Status {
	return p.DELETED
}

func (mc *mockSqlClient) FindByGoogleID(string) (p.UserRecord, p.Status) {
	return p.UserRecord{}, mc.findStatus
}

func (mc *mockSqlClient) SetIcebreaker(string, string) p.Status {
	return p.UPDATED
}

func (mc *mockSqlClient) ActiveConnection() bool {
	return true
}

func newTestHandler(sqlClient p.Clienter) Handler {
	return NewHandler(sqlClient, Config{
		ClientID:      "test-client-id",
		ClientSecret:  "test-client-secret",
		RedirectURL:   "http://localhost:8080/auth/google/callback",
		SessionSecret: "test-session-secret",
	})
}

func serve(handler Handler, req *http.Request) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	handler.RegisterHandlers(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginRedirectsToProvider(t *testing.T) {
	assert := assert.New(t)
	handler := newTestHandler(&mockSqlClient{})

	rec := serve(handler, httptest.NewRequest("GET", "/auth/google", nil))
	assert.Equal(http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal("accounts.google.com", location.Host)
	assert.Equal("test-client-id", location.Query().Get("client_id"))
	assert.NotEmpty(location.Query().Get("state"))
	assert.NotEmpty(rec.Header().Get("Set-Cookie"), "login must persist the state in the session")
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	handler := newTestHandler(&mockSqlClient{})

	rec := serve(handler, httptest.NewRequest("GET", "/auth/google/callback?state=forged&code=whatever", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackCreatesUserAndSession(t *testing.T) {
	assert := assert.New(t)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "test-token", "token_type": "bearer"}`)
	}))
	defer tokenServer.Close()

	userinfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "113940931470300000000", "name": "Jane Doe", "email": "jane.doe@gmail.com"}`)
	}))
	defer userinfoServer.Close()

	sqlClient := &mockSqlClient{findStatus: p.NOT_FOUND}
	handler := newTestHandler(sqlClient)
	handler.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}
	handler.userinfoURL = userinfoServer.URL

	// run the login leg to obtain a session cookie carrying the state
	loginRec := serve(handler, httptest.NewRequest("GET", "/auth/google", nil))
	location, err := url.Parse(loginRec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	callback := httptest.NewRequest("GET", "/auth/google/callback?state="+state+"&code=test-code", nil)
	for _, cookie := range loginRec.Result().Cookies() {
		callback.AddCookie(cookie)
	}
	rec := serve(handler, callback)

	assert.Equal(http.StatusFound, rec.Code)
	assert.Equal("/", rec.Header().Get("Location"))
	require.NotNil(t, sqlClient.created, "first login must create the user record")
	assert.Equal("113940931470300000000", sqlClient.created.GoogleID)
	assert.Equal("Jane Doe", sqlClient.created.Name)

	// the session written on the callback must identify the caller
	authed := httptest.NewRequest("GET", "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		authed.AddCookie(cookie)
	}
	googleID, ok := handler.GoogleID(authed)
	assert.True(ok)
	assert.Equal("113940931470300000000", googleID)
}

func TestLogoutExpiresSession(t *testing.T) {
	handler := newTestHandler(&mockSqlClient{})

	rec := serve(handler, httptest.NewRequest("GET", "/auth/logout", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestGoogleIDWithoutSession(t *testing.T) {
	handler := newTestHandler(&mockSqlClient{})

	_, ok := handler.GoogleID(httptest.NewRequest("GET", "/", nil))
	assert.False(t, ok)
}
