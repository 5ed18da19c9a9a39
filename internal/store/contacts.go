package store

import (
	"github.com/Math3wsl3vi/beehives-website/internal/models"
)

func (s *Store) CreateContact(c *models.Contact) error {
	query := `
		INSERT INTO contact (name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := s.DB.Exec(query, c.Name, c.Email, c.Subject, c.Message)
	return err
}

func (s *Store) GetAllContacts() ([]models.Contact, error) {
	query := `SELECT id, name, email, COALESCE(subject, '') as subject, message, created_at
	          FROM contact ORDER BY created_at DESC`
	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
