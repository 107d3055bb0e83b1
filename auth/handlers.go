package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/icebreakr/icebreakr-backend/persistence"
)

const (
	sessionName     = "icebreakr-session"
	sessionGoogleID = "googleId"
	sessionState    = "oauthState"

	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	msgTemplate = "{\"message\": \"%s\"}"
)

//Config carries the identity provider credentials and the session secret
type Config struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	SessionSecret string
}

//Handler mounts the Google OAuth flow and the cookie session it establishes.
//The protocol itself is delegated to golang.org/x/oauth2; this handler only
//drives the redirect, exchanges the code, and upserts the user record.
type Handler struct {
	sqlClient   persistence.Clienter
	store       *sessions.CookieStore
	oauthConfig *oauth2.Config
	userinfoURL string
}

func NewHandler(sqlClient persistence.Clienter, cfg Config) Handler {
	return Handler{
		sqlClient: sqlClient,
		store:     sessions.NewCookieStore([]byte(cfg.SessionSecret)),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoints.Google,
		},
		userinfoURL: defaultUserinfoURL,
	}
}

func (h *Handler) RegisterHandlers(router *mux.Router) {
	log.Info("registering auth handlers")
	router.Handle("/auth/google", handlers.MethodHandler{
		"GET": http.HandlerFunc(h.Login),
	})
	router.Handle("/auth/google/callback", handlers.MethodHandler{
		"GET": http.HandlerFunc(h.Callback),
	})
	router.Handle("/auth/logout", handlers.MethodHandler{
		"GET": http.HandlerFunc(h.Logout),
	})
}

//Login stores a fresh state token in the session and redirects to the
//identity provider's consent page
func (h *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	session, _ := h.store.Get(request, sessionName)
	state := uuid.NewString()
	session.Values[sessionState] = state
	if err := session.Save(request, writer); err != nil {
		log.WithError(err).Error("could not save session")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	http.Redirect(writer, request, h.oauthConfig.AuthCodeURL(state), http.StatusFound)
}

type googleProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

//Callback exchanges the authorization code, fetches the caller's profile,
//upserts the user record and marks the session as authenticated
func (h *Handler) Callback(writer http.ResponseWriter, request *http.Request) {
	session, _ := h.store.Get(request, sessionName)

	expectedState, _ := session.Values[sessionState].(string)
	if expectedState == "" || request.URL.Query().Get("state") != expectedState {
		log.Error("oauth state mismatch on callback")
		writer.Header().Add("Content-Type", "application/json")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "invalid oauth state"))
		return
	}

	token, err := h.oauthConfig.Exchange(request.Context(), request.URL.Query().Get("code"))
	if err != nil {
		log.WithError(err).Error("could not exchange authorization code")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	resp, err := h.oauthConfig.Client(request.Context(), token).Get(h.userinfoURL)
	if err != nil {
		log.WithError(err).Error("could not fetch user profile")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		log.WithError(err).Error("could not decode user profile")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	if _, status := h.sqlClient.FindByGoogleID(profile.ID); status == persistence.NOT_FOUND {
		created := h.sqlClient.CreateRecord(persistence.UserRecord{
			UserID:       uuid.NewString(),
			GoogleID:     profile.ID,
			Name:         profile.Name,
			EmailAddress: profile.Email,
		})
		if created != persistence.CREATED {
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	delete(session.Values, sessionState)
	session.Values[sessionGoogleID] = profile.ID
	if err := session.Save(request, writer); err != nil {
		log.WithError(err).Error("could not save session")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.WithField("GoogleID", profile.ID).Info("user logged in")
	http.Redirect(writer, request, "/", http.StatusFound)
}

//Logout drops the session cookie
func (h *Handler) Logout(writer http.ResponseWriter, request *http.Request) {
	session, _ := h.store.Get(request, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(request, writer); err != nil {
		log.WithError(err).Error("could not expire session")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	http.Redirect(writer, request, "/", http.StatusFound)
}

//GoogleID returns the external identity key of the logged-in caller, if any
func (h *Handler) GoogleID(request *http.Request) (string, bool) {
	session, err := h.store.Get(request, sessionName)
	if err != nil {
		return "", false
	}
	googleID, ok := session.Values[sessionGoogleID].(string)
	return googleID, ok && googleID != ""
}
