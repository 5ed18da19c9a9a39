package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Math3wsl3vi/beehives-website/internal/store"
)

const ordersPerPage = 20

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * ordersPerPage

	orders, err := h.Store.GetAllOrders(ordersPerPage, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching orders")
		return
	}
	total, err := h.Store.GetTotalOrdersCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching orders")
		return
	}

	totalPages := (total + ordersPerPage - 1) / ordersPerPage
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":      orders,
		"page":        page,
		"total_pages": totalPages,
		"total":       total,
	})
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Store.GetOrderByRef(r.PathValue("ref"))
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order forward through pending > completed >
// shipped. Backwards moves are rejected.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Store.UpdateOrderStatus(ref, req.Status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
	case errors.Is(err, store.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, store.ErrUnknownOrderStatus):
		writeError(w, http.StatusBadRequest, "Unknown order status")
	case errors.Is(err, store.ErrStatusNotForward):
		writeError(w, http.StatusConflict, "Order status cannot move backwards")
	default:
		writeError(w, http.StatusInternalServerError, "Error updating order status")
	}
}

type reviewResponseRequest struct {
	Response string `json:"response"`
}

func (h *AdminHandler) RespondToReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req reviewResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Response) == "" {
		writeError(w, http.StatusBadRequest, "Response cannot be empty")
		return
	}

	if err := h.Store.SetReviewResponse(id, req.Response); err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			writeError(w, http.StatusNotFound, "Review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating review")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Response saved"})
}
