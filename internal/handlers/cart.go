package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Math3wsl3vi/beehives-website/internal/cart"
	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
)

type CartHandler struct {
	Store *store.Store
	Carts cart.Persister
}

type cartResponse struct {
	Items []models.CartItem `json:"items"`
	Total string            `json:"total"`
}

func cartView(c *cart.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return cartResponse{Items: items, Total: c.Total().String()}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	writeJSON(w, http.StatusOK, cartView(c))
}

type addToCartRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// AddItem snapshots the product into the cart. Adding a product that is
// already in the cart bumps its quantity rather than adding a second line.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.Store.GetProductByID(req.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching product")
		return
	}

	c, err := h.Carts.Load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	c.Add(models.CartItem{
		ProductID:   product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Quantity:    req.Quantity,
		Category:    product.Category,
		ImageURL:    product.ImageURL,
		Description: product.Description,
	})
	if err := h.Carts.Save(r, w, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving cart")
		return
	}
	writeJSON(w, http.StatusOK, cartView(c))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Carts.Load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	if err := c.SetQuantity(productID, req.Quantity); err != nil {
		writeError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	if err := h.Carts.Save(r, w, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving cart")
		return
	}
	writeJSON(w, http.StatusOK, cartView(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	c, err := h.Carts.Load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	c.Remove(productID)
	if err := h.Carts.Save(r, w, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving cart")
		return
	}
	writeJSON(w, http.StatusOK, cartView(c))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	c.Clear()
	if err := h.Carts.Save(r, w, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Error saving cart")
		return
	}
	writeJSON(w, http.StatusOK, cartView(c))
}
