package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
)

type ShopHandler struct {
	Store *store.Store
}

// ListProducts serves the public catalog, optionally filtered by category.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.fetch(category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ShopHandler) fetch(category string) ([]models.Product, error) {
	if category != "" {
		return h.Store.GetProductsByCategory(category)
	}
	return h.Store.GetAllProducts()
}

func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.Store.GetProductByID(id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}
