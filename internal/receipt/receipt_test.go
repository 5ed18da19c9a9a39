package receipt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjectStore struct {
	objects map[string][]byte
}

func (m *memObjectStore) Put(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[path] = data
	return "/files/" + path, nil
}

func (m *memObjectStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderRef:    "ORD-1700000000000",
		UserEmail:   "buyer@example.com",
		PhoneNumber: "254712345678",
		TotalAmount: "10700",
		Status:      models.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Langstroth Beehive", Price: "4500", Quantity: 2},
			{ProductID: 2, ProductName: "Hive Tool", Price: "1700", Quantity: 1},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	g := NewGenerator(&memObjectStore{})
	g.Now = func() time.Time { return time.Date(2025, 11, 29, 10, 30, 0, 0, time.UTC) }

	data, err := g.Render(sampleOrder())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderEmptyItems(t *testing.T) {
	g := NewGenerator(&memObjectStore{})

	order := sampleOrder()
	order.Items = nil
	data, err := g.Render(order)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestGenerateAndUpload(t *testing.T) {
	store := &memObjectStore{}
	g := NewGenerator(store)

	url, err := g.GenerateAndUpload(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "/files/receipts/ORD-1700000000000.pdf", url)
	assert.NotEmpty(t, store.objects["receipts/ORD-1700000000000.pdf"])
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "receipts/ORD-42.pdf", ObjectPath("ORD-42"))
}
