package store

import (
	"fmt"
	"testing"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitSchema())
	return s
}

func seedProduct(t *testing.T, s *Store, name, price string, quantity int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Category: "hives",
	}
	require.NoError(t, s.CreateProduct(p))
	require.NotZero(t, p.ID)
	return p
}

func TestProductCRUD(t *testing.T) {
	s := newTestStore(t)

	p := seedProduct(t, s, "Langstroth Beehive", "4500", 10)

	got, err := s.GetProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Langstroth Beehive", got.Name)
	assert.Equal(t, "4500", got.Price)
	assert.Equal(t, 10, got.Quantity)

	got.Price = "4800"
	got.Quantity = 7
	require.NoError(t, s.UpdateProduct(got))

	updated, err := s.GetProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "4800", updated.Price)
	assert.Equal(t, 7, updated.Quantity)

	require.NoError(t, s.DeleteProduct(p.ID))
	_, err = s.GetProductByID(p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductsByCategory(t *testing.T) {
	s := newTestStore(t)
	seedProduct(t, s, "Langstroth Beehive", "4500", 10)

	suit := &models.Product{Name: "Full Bee Suit", Price: "3200", Quantity: 5, Category: "protective-gear"}
	require.NoError(t, s.CreateProduct(suit))

	gear, err := s.GetProductsByCategory("protective-gear")
	require.NoError(t, err)
	require.Len(t, gear, 1)
	assert.Equal(t, "Full Bee Suit", gear[0].Name)

	all, err := s.GetAllProducts()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Langstroth Beehive", "4500", 10)

	order := &models.Order{
		OrderRef:    "ORD-1700000000000",
		UserEmail:   "buyer@example.com",
		PhoneNumber: "254712345678",
		TotalAmount: "9000",
		Status:      models.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: 2},
		},
	}
	require.NoError(t, s.CreateOrder(order))
	assert.NotZero(t, order.ID)

	got, err := s.GetProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Quantity)

	saved, err := s.GetOrderByRef("ORD-1700000000000")
	require.NoError(t, err)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, 2, saved.Items[0].Quantity)
	assert.Equal(t, models.OrderStatusCompleted, saved.Status)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	s := newTestStore(t)
	hive := seedProduct(t, s, "Langstroth Beehive", "4500", 10)
	smoker := seedProduct(t, s, "Stainless Smoker", "1500", 1)

	order := &models.Order{
		OrderRef:    "ORD-1700000000001",
		UserEmail:   "buyer@example.com",
		PhoneNumber: "254712345678",
		TotalAmount: "12000",
		Status:      models.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ProductID: hive.ID, ProductName: hive.Name, Price: hive.Price, Quantity: 2},
			{ProductID: smoker.ID, ProductName: smoker.Name, Price: smoker.Price, Quantity: 3},
		},
	}
	err := s.CreateOrder(order)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing landed: no order row, and the first item's stock is untouched.
	_, err = s.GetOrderByRef("ORD-1700000000001")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := s.GetProductByID(hive.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Langstroth Beehive", "4500", 3)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(n int) {
			errs <- s.CreateOrder(&models.Order{
				OrderRef:    fmt.Sprintf("ORD-170000000010%d", n),
				UserEmail:   "buyer@example.com",
				PhoneNumber: "254712345678",
				TotalAmount: "9000",
				Status:      models.OrderStatusCompleted,
				Items: []models.OrderItem{
					{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: 2},
				},
			})
		}(i)
	}

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			require.ErrorIs(t, err, ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	got, err := s.GetProductByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	s := newTestStore(t)

	order := &models.Order{
		OrderRef:    "ORD-1700000000002",
		UserEmail:   "buyer@example.com",
		PhoneNumber: "254712345678",
		TotalAmount: "4500",
		Status:      models.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ProductID: 999, ProductName: "Ghost", Price: "4500", Quantity: 1},
		},
	}
	assert.ErrorIs(t, s.CreateOrder(order), ErrProductNotFound)
}

func TestUpdateOrderStatusForwardOnly(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Langstroth Beehive", "4500", 10)

	order := &models.Order{
		OrderRef:    "ORD-1700000000003",
		UserEmail:   "buyer@example.com",
		PhoneNumber: "254712345678",
		TotalAmount: "4500",
		Status:      models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: 1},
		},
	}
	require.NoError(t, s.CreateOrder(order))

	require.NoError(t, s.UpdateOrderStatus(order.OrderRef, models.OrderStatusShipped))

	err := s.UpdateOrderStatus(order.OrderRef, models.OrderStatusPending)
	assert.ErrorIs(t, err, ErrStatusNotForward)

	// Same-status updates are allowed.
	assert.NoError(t, s.UpdateOrderStatus(order.OrderRef, models.OrderStatusShipped))

	assert.ErrorIs(t, s.UpdateOrderStatus(order.OrderRef, "cancelled"), ErrUnknownOrderStatus)
	assert.ErrorIs(t, s.UpdateOrderStatus("ORD-missing", models.OrderStatusShipped), ErrOrderNotFound)
}

func TestCheckoutAttemptLifecycle(t *testing.T) {
	s := newTestStore(t)

	attempt := &models.CheckoutAttempt{
		CheckoutRequestID: "ws_CO_291120250001",
		UserEmail:         "buyer@example.com",
		PhoneNumber:       "254712345678",
		Amount:            "4500",
		Items: []models.CartItem{
			{ProductID: 1, Name: "Langstroth Beehive", Price: "4500", Quantity: 1},
		},
		State: models.AttemptStatePolling,
	}
	require.NoError(t, s.CreateCheckoutAttempt(attempt))

	got, err := s.GetCheckoutAttempt(attempt.CheckoutRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStatePolling, got.State)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Langstroth Beehive", got.Items[0].Name)
	assert.True(t, got.CompletedAt.IsZero())

	require.NoError(t, s.MarkAttemptTerminal(attempt.CheckoutRequestID, models.AttemptStateCompleted, "ORD-1700000000004"))

	done, err := s.GetCheckoutAttempt(attempt.CheckoutRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateCompleted, done.State)
	assert.Equal(t, "ORD-1700000000004", done.OrderRef)
	assert.False(t, done.CompletedAt.IsZero())

	// Terminal attempts cannot be re-marked.
	err = s.MarkAttemptTerminal(attempt.CheckoutRequestID, models.AttemptStateFailed, "")
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = s.GetCheckoutAttempt("ws_CO_missing")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestContactsAndReviews(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Langstroth Beehive", "4500", 10)

	require.NoError(t, s.CreateContact(&models.Contact{
		Name:    "Wanjiku",
		Email:   "wanjiku@example.com",
		Subject: "Delivery",
		Message: "Do you deliver to Nakuru?",
	}))
	contacts, err := s.GetAllContacts()
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Wanjiku", contacts[0].Name)

	require.NoError(t, s.CreateReview(&models.Review{
		ProductID:  p.ID,
		UserName:   "Otieno",
		UserEmail:  "otieno@example.com",
		ReviewText: "Sturdy hive, bees settled fast.",
		Rating:     5,
	}))
	reviews, err := s.GetReviewsByProduct(p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, "Langstroth Beehive", reviews[0].ProductName)

	require.NoError(t, s.SetReviewResponse(reviews[0].ID, "Thank you! Happy beekeeping."))
	all, err := s.GetAllReviews()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Thank you! Happy beekeeping.", all[0].AdminResponse)

	assert.ErrorIs(t, s.SetReviewResponse(999, "hello"), ErrReviewNotFound)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateUser("admin", "$2a$10$notarealhash"))

	u, err := s.GetUserByUsername("admin")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "admin", u.Username)

	missing, err := s.GetUserByUsername("ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDashboardStats(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "Langstroth Beehive", "4500", 10)

	order := &models.Order{
		OrderRef:    "ORD-1700000000005",
		UserEmail:   "buyer@example.com",
		PhoneNumber: "254712345678",
		TotalAmount: "4500",
		Status:      models.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: 1},
		},
	}
	require.NoError(t, s.CreateOrder(order))

	stats, err := s.GetDashboardStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 1, stats.OrdersByStatus[models.OrderStatusCompleted])
}
