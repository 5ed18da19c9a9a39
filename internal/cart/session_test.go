package cart

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPersisterRoundTrip(t *testing.T) {
	p := NewSessionPersister(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")))

	c := &Cart{}
	c.Add(models.CartItem{ProductID: 1, Name: "Langstroth Beehive", Price: "4500", Quantity: 2})

	w := httptest.NewRecorder()
	require.NoError(t, p.Save(httptest.NewRequest(http.MethodPost, "/", nil), w, c))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	loaded, err := p.Load(req)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Langstroth Beehive", loaded.Items[0].Name)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
}

func TestSessionPersisterNoCookieIsEmptyCart(t *testing.T) {
	p := NewSessionPersister(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")))

	c, err := p.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestSessionPersisterTamperedCookieIsEmptyCart(t *testing.T) {
	p := NewSessionPersister(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "garbage"})

	c, err := p.Load(req)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}
