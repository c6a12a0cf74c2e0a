package api

import (
	"net/http"
	"net/mail"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		s.fail(w, r, domain.Validation("name is required"))
		return
	}
	if body.Email == nil || strings.TrimSpace(*body.Email) == "" {
		s.fail(w, r, domain.Validation("email is required"))
		return
	}
	if err := checkEmail(*body.Email); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.svc.Users.CreateUser(r.Context(), *body.Name, *body.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.svc.Users.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body userRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		s.fail(w, r, domain.Validation("name must not be blank"))
		return
	}
	if body.Email != nil {
		if err := checkEmail(*body.Email); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	user, err := s.svc.Users.UpdateUser(r.Context(), id, models.UserPatch{Name: body.Name, Email: body.Email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Users.DeleteUser(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func checkEmail(raw string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) {
		return domain.Validation("email %q is not a valid address", raw)
	}
	return nil
}

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case body.Name == nil || strings.TrimSpace(*body.Name) == "":
		s.fail(w, r, domain.Validation("name is required"))
		return
	case body.Description == nil || strings.TrimSpace(*body.Description) == "":
		s.fail(w, r, domain.Validation("description is required"))
		return
	case body.Available == nil:
		s.fail(w, r, domain.Validation("available is required"))
		return
	}

	item, err := s.svc.Items.CreateItem(r.Context(), owner, models.NewItem{
		Name:        *body.Name,
		Description: *body.Description,
		Available:   body.Available,
		RequestID:   body.RequestID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.svc.Items.UpdateItem(r.Context(), owner, itemID, models.ItemPatch{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Items.GetItem(r.Context(), caller, itemID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemViewDTO(view))
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views, err := s.svc.Items.ListByOwner(r.Context(), owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemViewDTOs(views))
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Items.Search(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	author, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body commentRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.fail(w, r, domain.Validation("text is required"))
		return
	}

	comment, err := s.svc.Comments.AddComment(r.Context(), author, itemID, body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requester, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemRequestRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(body.Description) == "" {
		s.fail(w, r, domain.Validation("description is required"))
		return
	}

	req, err := s.svc.Requests.CreateRequest(r.Context(), requester, body.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemRequestDTO(req))
}

func (s *HTTPServer) handleListMyRequests(w http.ResponseWriter, r *http.Request) {
	requester, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views, err := s.svc.Requests.ListMine(r.Context(), requester)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestViewDTOs(views))
}

func (s *HTTPServer) handleListOtherRequests(w http.ResponseWriter, r *http.Request) {
	requester, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	requests, err := s.svc.Requests.ListOthers(r.Context(), requester)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemRequestDTOs(requests))
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Requests.GetRequest(r.Context(), caller, requestID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestViewDTO(view))
}
