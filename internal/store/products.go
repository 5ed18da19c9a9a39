package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
)

var (
	ErrProductNotFound   = errors.New("store: product not found")
	ErrInsufficientStock = errors.New("store: insufficient stock")
)

func (s *Store) CreateProduct(p *models.Product) error {
	query := `
		INSERT INTO products (name, price, quantity, category, description, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := s.DB.Exec(query, p.Name, p.Price, p.Quantity, p.Category, p.Description, p.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = int(id)
	return nil
}

func (s *Store) GetAllProducts() ([]models.Product, error) {
	query := `SELECT id, name, price, quantity, category, COALESCE(description, '') as description, COALESCE(image_url, '') as image_url, created_at
	          FROM products ORDER BY created_at DESC`
	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Category, &p.Description, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductsByCategory(category string) ([]models.Product, error) {
	query := `SELECT id, name, price, quantity, category, COALESCE(description, '') as description, COALESCE(image_url, '') as image_url, created_at
	          FROM products WHERE category = ? ORDER BY created_at DESC`
	rows, err := s.DB.Query(query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Category, &p.Description, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductByID(id int) (*models.Product, error) {
	query := `SELECT id, name, price, quantity, category, COALESCE(description, '') as description, COALESCE(image_url, '') as image_url, created_at
	          FROM products WHERE id = ?`
	var p models.Product
	err := s.DB.QueryRow(query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Category, &p.Description, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(p *models.Product) error {
	query := `
		UPDATE products
		SET name = ?, price = ?, quantity = ?, category = ?, description = ?
		WHERE id = ?
	`
	_, err := s.DB.Exec(query, p.Name, p.Price, p.Quantity, p.Category, p.Description, p.ID)
	return err
}

func (s *Store) UpdateProductImage(id int, imageURL string) error {
	query := `UPDATE products SET image_url = ? WHERE id = ?`
	_, err := s.DB.Exec(query, imageURL, id)
	return err
}

func (s *Store) DeleteProduct(id int) error {
	res, err := s.DB.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// decrementStockTx takes n units off one product inside an order transaction.
// Read current stock, fail if the product vanished, fail if the result would
// go negative, otherwise write the decremented value. Concurrent purchases of
// the last unit cannot both pass: the enclosing transaction serializes them.
func decrementStockTx(tx *sql.Tx, productID, n int) error {
	var current int
	err := tx.QueryRow(`SELECT quantity FROM products WHERE id = ?`, productID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		return err
	}
	if current-n < 0 {
		return fmt.Errorf("%w: product %d has %d, wanted %d", ErrInsufficientStock, productID, current, n)
	}
	_, err = tx.Exec(`UPDATE products SET quantity = ? WHERE id = ?`, current-n, productID)
	return err
}
