package models

import (
	"time"
)

type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"` // decimal, kept as text (matches catalog schema)
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category"` // "Honey", "Gear", "Hives", ...
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CartItem is one line of a visitor's cart. The whole cart lives in the
// session cookie under a fixed storage key and survives across visits.
type CartItem struct {
	ProductID   int    `json:"product_id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"` // always >= 1
	Category    string `json:"category"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Order statuses. Admin action only ever moves an order forward.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusShipped   = "shipped"
)

type Order struct {
	ID          int         `json:"id"`
	OrderRef    string      `json:"order_ref"` // public "ORD-<epoch-millis>" ID
	UserEmail   string      `json:"user_email"`
	PhoneNumber string      `json:"phone_number"`
	TotalAmount string      `json:"total_amount"`
	Status      string      `json:"status"`
	ReceiptURL  string      `json:"receipt_url,omitempty"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}

type OrderItem struct {
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
}

// Checkout flow states. A CheckoutAttempt is created once the gateway accepts
// an initiation request; it is the record the browser polls against.
const (
	AttemptStatePolling   = "polling"
	AttemptStateCompleted = "completed"
	AttemptStateFailed    = "failed"
	AttemptStateTimedOut  = "timed_out"
)

type CheckoutAttempt struct {
	// CheckoutRequestID is the opaque reference issued by the payment gateway.
	CheckoutRequestID string     `json:"checkout_request_id"`
	UserEmail         string     `json:"user_email"`
	PhoneNumber       string     `json:"phone_number"`
	Amount            string     `json:"amount"`
	Items             []CartItem `json:"items"`
	State             string     `json:"state"`
	OrderRef          string     `json:"order_ref,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       time.Time  `json:"completed_at,omitempty"`
}

type Contact struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID            int       `json:"id"`
	ProductID     int       `json:"product_id"`
	ProductName   string    `json:"product_name,omitempty"` // for display convenience
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
	ReviewText    string    `json:"review_text"`
	Rating        int       `json:"rating"` // 1..5
	AdminResponse string    `json:"admin_response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash
}
