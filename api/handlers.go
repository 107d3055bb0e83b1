package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/icebreakr/icebreakr-backend/enrichment"
	"github.com/icebreakr/icebreakr-backend/persistence"
)

const msgTemplate = "{\"message\": \"%s\"}"

//Handler binds the enrichment client and the persistence gateway to the
//three /api endpoints
type Handler struct {
	sqlClient        persistence.Clienter
	enrichmentClient enrichment.Clienter
}

func NewHandler(sqlClient persistence.Clienter, enrichmentClient enrichment.Clienter) Handler {
	return Handler{
		sqlClient:        sqlClient,
		enrichmentClient: enrichmentClient,
	}
}

func (h *Handler) RegisterHandlers(router *mux.Router) {
	log.Info("registering api handlers")
	router.Handle("/api", handlers.MethodHandler{
		"GET":  http.HandlerFunc(h.GetIcebreaker),
		"POST": http.HandlerFunc(h.SaveIcebreaker),
	})
	router.Handle("/api/vibe", handlers.MethodHandler{
		"POST": http.HandlerFunc(h.VibeCheck),
	})
}

//statusCode maps storage results onto HTTP codes in one place so every
//handler agrees on the not-found vs failure distinction
func statusCode(status persistence.Status) int {
	switch status {
	case persistence.OK, persistence.CREATED, persistence.UPDATED:
		return http.StatusCreated
	case persistence.NOT_FOUND:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

//GetIcebreaker proxies the icebreaker question generator
func (h *Handler) GetIcebreaker(writer http.ResponseWriter, request *http.Request) {
	question, err := h.enrichmentClient.FetchIcebreaker(request.Context())
	if err != nil {
		log.WithError(err).Error("could not fetch icebreaker from provider")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(http.StatusCreated)
	fmt.Fprint(writer, question)
}

type saveIcebreakerRequest struct {
	Icebreaker string `json:"icebreaker"`
	GoogleID   string `json:"googleId"`
}

//SaveIcebreaker stores the caller's chosen icebreaker on their user record
func (h *Handler) SaveIcebreaker(writer http.ResponseWriter, request *http.Request) {
	var body saveIcebreakerRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		log.WithError(err).Error("could not decode request body")
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not decode request body"))
		return
	}

	_, status := h.sqlClient.FindByGoogleID(body.GoogleID)
	if status == persistence.OK {
		status = h.sqlClient.SetIcebreaker(body.GoogleID, body.Icebreaker)
	}
	writer.WriteHeader(statusCode(status))
}

type vibeCheckRequest struct {
	Bio string `json:"bio"`
}

//VibeCheck proxies the sentiment classifier, passing the provider payload
//back unmodified
func (h *Handler) VibeCheck(writer http.ResponseWriter, request *http.Request) {
	var body vibeCheckRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		log.WithError(err).Error("could not decode request body")
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not decode request body"))
		return
	}

	payload, contentType, err := h.enrichmentClient.FetchVibe(request.Context(), body.Bio)
	if err != nil {
		log.WithError(err).Error("could not fetch vibe classification from provider")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", contentType)
	writer.WriteHeader(http.StatusCreated)
	writer.Write(payload)
}
