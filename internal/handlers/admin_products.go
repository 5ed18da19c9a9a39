package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Math3wsl3vi/beehives-website/internal/blobstore"
	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/shopspring/decimal"
)

// ProductAdminHandler carries the catalog management endpoints. Image uploads
// are normalised to 800px wide JPEGs before hitting the object store.
type ProductAdminHandler struct {
	Store  *store.Store
	Images blobstore.ObjectStore
}

type productRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (pr *productRequest) validate() error {
	if strings.TrimSpace(pr.Name) == "" {
		return errors.New("name is required")
	}
	price, err := decimal.NewFromString(pr.Price)
	if err != nil || price.IsNegative() {
		return errors.New("price must be a non-negative number")
	}
	if pr.Quantity < 0 {
		return errors.New("quantity cannot be negative")
	}
	if strings.TrimSpace(pr.Category) == "" {
		return errors.New("category is required")
	}
	return nil
}

func (h *ProductAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := h.Store.CreateProduct(product); err != nil {
		slog.Error("Failed to create product", "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating product")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductAdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	existing, err := h.Store.GetProductByID(id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching product")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Price = req.Price
	existing.Quantity = req.Quantity
	existing.Category = req.Category
	existing.Description = req.Description
	if req.ImageURL != "" {
		existing.ImageURL = req.ImageURL
	}

	if err := h.Store.UpdateProduct(existing); err != nil {
		slog.Error("Failed to update product", "product_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error updating product")
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *ProductAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if err := h.Store.DeleteProduct(id); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// UploadImage accepts a multipart "image" field, resizes it and attaches the
// stored URL to the product.
func (h *ProductAdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if _, err := h.Store.GetProductByID(id); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching product")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB
		writeError(w, http.StatusBadRequest, "File too large.")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	var img image.Image
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png":
		img, err = png.Decode(file)
	case ".jpeg", ".jpg":
		img, err = jpeg.Decode(file)
	default:
		writeError(w, http.StatusBadRequest, "Unsupported image format.")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode image")
		return
	}

	newImage := resize.Resize(800, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, newImage, &jpeg.Options{Quality: 80}); err != nil {
		slog.Error("Failed to encode image", "error", err)
		writeError(w, http.StatusInternalServerError, "Error processing image")
		return
	}

	objectPath := fmt.Sprintf("products/%s.jpg", uuid.New().String())
	url, err := h.Images.Put(r.Context(), objectPath, "image/jpeg", &buf)
	if err != nil {
		slog.Error("Failed to store image", "error", err)
		writeError(w, http.StatusInternalServerError, "Error storing image")
		return
	}
	if err := h.Store.UpdateProductImage(id, url); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating product image")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image_url": url})
}
