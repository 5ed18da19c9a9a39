package store

import (
	"errors"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
)

var ErrReviewNotFound = errors.New("store: review not found")

func (s *Store) CreateReview(r *models.Review) error {
	query := `
		INSERT INTO reviews (product_id, user_name, user_email, review_text, rating, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := s.DB.Exec(query, r.ProductID, r.UserName, r.UserEmail, r.ReviewText, r.Rating)
	return err
}

func (s *Store) GetReviewsByProduct(productID int) ([]models.Review, error) {
	query := `
		SELECT r.id, r.product_id, p.name, r.user_name, r.user_email, r.review_text, r.rating, COALESCE(r.admin_response, '') as admin_response, r.created_at
		FROM reviews r
		JOIN products p ON p.id = r.product_id
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC
	`
	return s.scanReviews(query, productID)
}

func (s *Store) GetAllReviews() ([]models.Review, error) {
	query := `
		SELECT r.id, r.product_id, p.name, r.user_name, r.user_email, r.review_text, r.rating, COALESCE(r.admin_response, '') as admin_response, r.created_at
		FROM reviews r
		JOIN products p ON p.id = r.product_id
		ORDER BY r.created_at DESC
	`
	return s.scanReviews(query)
}

func (s *Store) scanReviews(query string, args ...any) ([]models.Review, error) {
	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.ProductName, &r.UserName, &r.UserEmail, &r.ReviewText, &r.Rating, &r.AdminResponse, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Store) SetReviewResponse(reviewID int, response string) error {
	query := `UPDATE reviews SET admin_response = ? WHERE id = ?`
	res, err := s.DB.Exec(query, response, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}
