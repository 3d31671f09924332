package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lucianoottor/message-app/internal/service"
)

type conversationCreateRequest struct {
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1"`
	Title          *string `json:"title"`
}

type titleUpdateRequest struct {
	Title string `json:"title" validate:"required"`
}

func handleCreateConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req conversationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "participant_ids is required"})
			return
		}

		conv, err := convSvc.ResolveOrCreate(r.Context(), currentUser.ID, req.ParticipantIDs, req.Title)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleListConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convs, err := convSvc.ListForUser(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if convs == nil {
			convs = []*service.ConversationView{}
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleGetMessages(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := conversationID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		msgs, err := convSvc.GetMessages(r.Context(), id, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if msgs == nil {
			msgs = []*service.MessageView{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleUpdateTitle(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := conversationID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		var req titleUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		conv, err := convSvc.UpdateTitle(r.Context(), id, req.Title, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleDeleteConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := conversationID(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		if err := convSvc.DeleteByID(r.Context(), id, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func conversationID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
}
