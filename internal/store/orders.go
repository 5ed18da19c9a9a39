package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
)

var (
	ErrOrderNotFound      = errors.New("store: order not found")
	ErrStatusNotForward   = errors.New("store: order status may only move forward")
	ErrUnknownOrderStatus = errors.New("store: unknown order status")
)

// statusRank orders the lifecycle: pending -> completed -> shipped.
var statusRank = map[string]int{
	models.OrderStatusPending:   0,
	models.OrderStatusCompleted: 1,
	models.OrderStatusShipped:   2,
}

// CreateOrder persists the order, its line items, and the stock decrements in
// a single transaction. Either everything lands or nothing does, so a
// completed order can never exist alongside unadjusted stock.
func (s *Store) CreateOrder(order *models.Order) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO orders (order_ref, user_email, phone_number, total_amount, status, receipt_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, order.OrderRef, order.UserEmail, order.PhoneNumber, order.TotalAmount, order.Status, order.ReceiptURL)
	if err != nil {
		return err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(`
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
			VALUES (?, ?, ?, ?, ?)
		`, orderID, item.ProductID, item.ProductName, item.Price, item.Quantity); err != nil {
			return err
		}
		if err := decrementStockTx(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	order.ID = int(orderID)
	return nil
}

func (s *Store) GetOrderByRef(orderRef string) (*models.Order, error) {
	query := `SELECT id, order_ref, user_email, phone_number, total_amount, status, COALESCE(receipt_url, '') as receipt_url, created_at
	          FROM orders WHERE order_ref = ?`
	var o models.Order
	err := s.DB.QueryRow(query, orderRef).Scan(&o.ID, &o.OrderRef, &o.UserEmail, &o.PhoneNumber, &o.TotalAmount, &o.Status, &o.ReceiptURL, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	items, err := s.getOrderItems(o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *Store) GetAllOrders(limit, offset int) ([]models.Order, error) {
	query := `
		SELECT id, order_ref, user_email, phone_number, total_amount, status, COALESCE(receipt_url, '') as receipt_url, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.DB.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderRef, &o.UserEmail, &o.PhoneNumber, &o.TotalAmount, &o.Status, &o.ReceiptURL, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.getOrderItems(orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *Store) getOrderItems(orderID int) ([]models.OrderItem, error) {
	rows, err := s.DB.Query(`
		SELECT product_id, product_name, price, quantity
		FROM order_items WHERE order_id = ? ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) GetTotalOrdersCount() (int, error) {
	var count int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateOrderStatus advances an order to newStatus. Moving backwards is
// rejected; an admin cannot un-ship an order.
func (s *Store) UpdateOrderStatus(orderRef, newStatus string) error {
	newRank, ok := statusRank[newStatus]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOrderStatus, newStatus)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	if err := tx.QueryRow(`SELECT status FROM orders WHERE order_ref = ?`, orderRef).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	if newRank < statusRank[current] {
		return fmt.Errorf("%w: %s -> %s", ErrStatusNotForward, current, newStatus)
	}

	if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE order_ref = ?`, newStatus, orderRef); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AttachReceipt(orderRef, receiptURL string) error {
	_, err := s.DB.Exec(`UPDATE orders SET receipt_url = ? WHERE order_ref = ?`, receiptURL, orderRef)
	return err
}
