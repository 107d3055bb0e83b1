package users

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/icebreakr/icebreakr-backend/persistence"
)

const msgTemplate = "{\"message\": \"%s\"}"

type UsersHandler struct {
	sqlClient persistence.Clienter
}

func NewUsersHandler(sqlClient persistence.Clienter) UsersHandler {
	return UsersHandler{
		sqlClient: sqlClient,
	}
}

func (h *UsersHandler) RegisterHandlers(router *mux.Router) {
	log.Info("registering user handlers")
	addUserHandler := handlers.MethodHandler{
		"PUT": http.HandlerFunc(h.AddUser),
	}
	editUserHandler := handlers.MethodHandler{
		"PATCH":  http.HandlerFunc(h.EditUser),
		"DELETE": http.HandlerFunc(h.DeleteUser),
	}
	getUserHandler := handlers.MethodHandler{
		"GET": http.HandlerFunc(h.GetRecords),
	}
	healthHandler := handlers.MethodHandler{
		"GET": http.HandlerFunc(h.IsHealthy),
	}

	router.Handle("/users/add", addUserHandler)
	router.Handle("/users/user/{userID}", editUserHandler)
	router.Handle("/users/user", getUserHandler)
	router.Handle("/__health", healthHandler)
}

func (h *UsersHandler) AddUser(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Add("Content-Type", "application/json")
	var body io.Reader = request.Body
	dec := json.NewDecoder(body)

	ur := persistence.UserRecord{}
	if err := dec.Decode(&ur); err != nil {
		log.WithError(err).Error("could not decode request body")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not decode request body"))
		return
	}

	//generates unique user ID using the external identity key
	ur.UserID = uuid.NewMD5(uuid.UUID{}, []byte(ur.GoogleID)).String()
	log.Debugf("generated ID: %s for new user with google id: %s", ur.UserID, ur.GoogleID)

	switch h.sqlClient.CreateRecord(ur) {
	case persistence.CREATED:
		writer.WriteHeader(http.StatusCreated)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "created user with ID: "+ur.UserID))
	case persistence.ALREADY_EXISTS:
		writer.WriteHeader(http.StatusConflict)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, fmt.Sprintf("user with google id: %s already exists in DB!", ur.GoogleID)))
	default:
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not add user to DB"))
	}
}

func (h *UsersHandler) EditUser(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Add("Content-Type", "application/json")
	vars := mux.Vars(request)
	userID := vars["userID"]

	var body io.Reader = request.Body
	dec := json.NewDecoder(body)

	ur := persistence.UserRecord{}
	if err := dec.Decode(&ur); err != nil {
		log.WithError(err).Error("could not decode request body")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not decode request body"))
		return
	}

	updates := extractFieldsToUpdate(ur)
	if len(updates) == 0 {
		log.WithField("UserID", userID).Error("supplied fields are not valid for update")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "supplied fields are not valid for update"))
		return
	}

	switch h.sqlClient.UpdateRecord(userID, updates) {
	case persistence.UPDATED:
		writer.WriteHeader(http.StatusOK)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "updated user: "+userID))
	case persistence.NOT_FOUND:
		writer.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not update user: "+userID+" as they did not exist"))
	default:
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, fmt.Sprintf("could not update user: %s", userID)))
	}
}

func extractFieldsToUpdate(ur persistence.UserRecord) map[string]string {
	updates := make(map[string]string)
	if ur.Name != "" {
		updates["name"] = ur.Name
	}
	if ur.EmailAddress != "" {
		updates["email"] = ur.EmailAddress
	}
	if ur.Bio != "" {
		updates["bio"] = ur.Bio
	}
	if ur.Icebreaker != "" {
		updates["icebreaker"] = ur.Icebreaker
	}
	return updates
}

func (h *UsersHandler) GetRecords(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Add("Content-Type", "application/json")

	params, err := url.ParseQuery(request.URL.RawQuery)
	if err != nil {
		log.WithError(err).Errorf("malformed request query: %v", request.URL.RawQuery)
		writer.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "malformed request query"))
		return
	}

	if len(params) == 0 {
		log.Info("no search criteria were supplied on request")
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "no url params supplied as criteria by which to search for matching users"))
		return
	}
	searchCriteria := make(map[string]string)
	for k, v := range params {
		searchCriteria[filterQueryParams(k)] = v[0]
	}

	users, retrievalStatus := h.sqlClient.RetrieveRecords(searchCriteria)
	switch retrievalStatus {
	case persistence.OK:
		writer.WriteHeader(http.StatusOK)
		enc := json.NewEncoder(writer)
		if err := enc.Encode(users); err != nil {
			log.WithError(err).Error("could not encode returned payload")
			writer.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not process request"))
			return
		}
	case persistence.NOT_FOUND:
		writer.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "found no users matching specified criteria"))
	default:
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not process request"))
	}
}

func filterQueryParams(key string) string {
	switch key {
	case "userID":
		return "user_id"
	case "googleId":
		return "google_id"
	case "name":
		return "name"
	case "email":
		return "email"
	case "bio":
		return "bio"
	case "icebreaker":
		return "icebreaker"
	default:
		log.Errorf("supplied param %s is invalid", key)
		return ""
	}
}

func (h *UsersHandler) DeleteUser(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Add("Content-Type", "application/json")
	vars := mux.Vars(request)
	userID := vars["userID"]
	switch h.sqlClient.DeleteRecord(userID) {
	case persistence.DELETED, persistence.NOT_FOUND:
		writer.WriteHeader(http.StatusNoContent)
	default:
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "could not process delete request"))
	}
}

func (h *UsersHandler) IsHealthy(writer http.ResponseWriter, request *http.Request) {
	if h.sqlClient.ActiveConnection() {
		writer.WriteHeader(http.StatusOK)
		fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "app is healthy"))
		return
	}
	writer.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintln(writer, fmt.Sprintf(msgTemplate, "app is unhealthy"))
}
