package handlers

import (
	"net/http"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
)

type ContactHandler struct {
	Store *store.Store
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Your name is required")
		return
	}
	if req.Email == "" || !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "A message is required")
		return
	}

	contact := &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.Store.CreateContact(contact); err != nil {
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Thank you for reaching out! We'll get back to you shortly.",
	})
}
