package cart

import (
	"encoding/gob"
	"net/http"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/gorilla/sessions"
)

// SessionName is the fixed storage key the cart persists under. Carts survive
// across visits for as long as the cookie does.
const SessionName = "beehive-cart-storage"

const itemsKey = "items"

func init() {
	gob.Register([]models.CartItem{})
}

// Persister loads and saves carts. Handlers depend on this interface so the
// backing store can move off session cookies without touching them.
type Persister interface {
	Load(r *http.Request) (*Cart, error)
	Save(r *http.Request, w http.ResponseWriter, c *Cart) error
}

// SessionPersister keeps the cart in a gorilla session cookie.
type SessionPersister struct {
	Store *sessions.CookieStore
}

func NewSessionPersister(store *sessions.CookieStore) *SessionPersister {
	return &SessionPersister{Store: store}
}

func (p *SessionPersister) Load(r *http.Request) (*Cart, error) {
	// A decode error (rotated keys, tampered cookie) yields a fresh session,
	// which for a cart means starting empty.
	session, _ := p.Store.Get(r, SessionName)
	c := &Cart{}
	if items, ok := session.Values[itemsKey].([]models.CartItem); ok {
		c.Items = items
	}
	return c, nil
}

func (p *SessionPersister) Save(r *http.Request, w http.ResponseWriter, c *Cart) error {
	session, _ := p.Store.Get(r, SessionName)
	session.Values[itemsKey] = c.Items
	return session.Save(r, w)
}
