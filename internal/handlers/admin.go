package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Math3wsl3vi/beehives-website/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const adminSessionName = "admin-session"

type AdminHandler struct {
	Store        *store.Store
	SessionStore *sessions.CookieStore
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Store.GetUserByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	session, _ := h.SessionStore.Get(r, adminSessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = user.ID
	session.Options.Path = "/"
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	slog.Info("Admin login successful", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome, " + user.Username + "!"})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, adminSessionName)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1 // Expire immediately
	session.Save(r, w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// RequireAdmin is the single authorization guard for every protected route.
// Individual handlers never re-check the session themselves.
func (h *AdminHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.SessionStore.Get(r, adminSessionName)
		if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
			slog.Info("Unauthenticated admin request", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "Access denied. Admins only.")
			return
		}
		next(w, r)
	}
}

// CSRFToken hands the current token to API clients; they echo it back in the
// X-CSRF-Token header on mutating admin requests.
func (h *AdminHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": csrf.Token(r)})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Store.GetAllContacts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Store.GetAllReviews()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching reviews")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
