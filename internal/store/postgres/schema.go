package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the mirror tables when they are missing. The mirror
// is filled by an external sync job; this only guarantees the shape.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, table := range []string{
		s.tables.Stores,
		s.tables.Organizations,
		s.tables.Wallets,
		s.tables.Payments,
		s.tables.Bills,
		s.tables.InvoiceExtractions,
		s.tables.ReceiptExtractions,
		s.tables.Transactions,
	} {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (doc jsonb NOT NULL)`, table)); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}
	return nil
}
