package store

import "database/sql"

type DashboardStats struct {
	TotalProducts    int
	TotalOrders      int
	TotalContacts    int
	OrdersByStatus   map[string]int
	ProductOrderTops []ProductOrderCount
}

type ProductOrderCount struct {
	ProductID int
	Name      string
	UnitsSold int
}

func (s *Store) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[string]int),
	}

	err := s.DB.QueryRow("SELECT COUNT(*) FROM products").Scan(&stats.TotalProducts)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	err = s.DB.QueryRow("SELECT COUNT(*) FROM orders").Scan(&stats.TotalOrders)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	err = s.DB.QueryRow("SELECT COUNT(*) FROM contact").Scan(&stats.TotalContacts)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	rows, err := s.DB.Query("SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.OrdersByStatus[status] = count
	}

	topRows, err := s.DB.Query(`
		SELECT p.id, p.name, COALESCE(SUM(oi.quantity), 0) as units_sold
		FROM products p
		LEFT JOIN order_items oi ON p.id = oi.product_id
		GROUP BY p.id
		ORDER BY units_sold DESC
	`)
	if err != nil {
		return nil, err
	}
	defer topRows.Close()
	for topRows.Next() {
		var poc ProductOrderCount
		if err := topRows.Scan(&poc.ProductID, &poc.Name, &poc.UnitsSold); err != nil {
			return nil, err
		}
		stats.ProductOrderTops = append(stats.ProductOrderTops, poc)
	}

	return stats, nil
}
