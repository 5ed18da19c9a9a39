package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
)

type ReviewHandler struct {
	Store *store.Store
}

func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	reviews, err := h.Store.GetReviewsByProduct(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching reviews")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

type createReviewRequest struct {
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	ReviewText string `json:"review_text"`
	Rating     int    `json:"rating"`
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ReviewText == "" {
		writeError(w, http.StatusBadRequest, "Review text is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	if req.UserEmail != "" && !isValidEmail(req.UserEmail) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	if _, err := h.Store.GetProductByID(productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error checking product")
		return
	}

	review := &models.Review{
		ProductID:  productID,
		UserName:   req.UserName,
		UserEmail:  req.UserEmail,
		ReviewText: req.ReviewText,
		Rating:     req.Rating,
	}
	if err := h.Store.CreateReview(review); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save review")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Review submitted. Thank you!"})
}
