// Package numerator provides PostgreSQL implementation of document auto-numbering.
// This is the infrastructure layer - it implements core/numerator.Generator interface.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	corenumerator "charterbooks/internal/core/numerator"
	"charterbooks/pkg/logger"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Service provides document numbering functionality using PostgreSQL.
//
// Numbers are drawn outside of the business transaction: a number consumed by
// a failed save is not rolled back, and the caller recycles it when it knows
// the number was never persisted.
type Service struct {
	querier Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// Next returns the lowest recycled number of the scope's current period,
// otherwise advances the sequence.
// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
func (s *Service) Next(ctx context.Context, scope corenumerator.Scope, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	number, err := s.popRecycled(ctx, scope, period)
	if err != nil {
		return "", err
	}
	if number != "" {
		logger.Debug(ctx, "reissuing recycled number", "number", number, "doc_type", scope.DocType)
		return number, nil
	}

	num, err := s.advance(ctx, scope.SequenceKey(period))
	if err != nil {
		return "", err
	}
	return scope.Format(period, num), nil
}

// popRecycled removes and returns the lowest recycled number, or "" when the pool is empty.
// SKIP LOCKED lets concurrent callers take different numbers instead of queueing.
func (s *Service) popRecycled(ctx context.Context, scope corenumerator.Scope, period time.Time) (string, error) {
	var number string
	err := s.querier.QueryRow(ctx, `
		DELETE FROM sys_recycled_numbers
		WHERE id = (
			SELECT id FROM sys_recycled_numbers
			WHERE company_id = $1 AND doc_type = $2 AND number LIKE $3
			ORDER BY length(number), number
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING number
	`, scope.CompanyID, scope.DocType, scope.PeriodPrefix(period)+"%").Scan(&number)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("pop recycled number: %w", err)
	}
	return number, nil
}

// advance fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) advance(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", key, err)
	}
	return num, nil
}

// Recycle returns number to the pool of its scope.
func (s *Service) Recycle(ctx context.Context, scope corenumerator.Scope, number string) error {
	if _, err := scope.Parse(number); err != nil {
		return err
	}

	_, err := s.querier.Exec(ctx, `
		INSERT INTO sys_recycled_numbers (company_id, doc_type, number)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, doc_type, number) DO NOTHING
	`, scope.CompanyID, scope.DocType, number)
	if err != nil {
		return fmt.Errorf("recycle number %s: %w", number, err)
	}
	return nil
}

// SetNextNumber moves the sequence so that the next issued number is value+1.
// Used when importing documents numbered by another system.
func (s *Service) SetNextNumber(ctx context.Context, scope corenumerator.Scope, period time.Time, value int64) error {
	_, err := s.querier.Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
	`, scope.SequenceKey(period), value)
	if err != nil {
		return fmt.Errorf("set sequence: %w", err)
	}
	return nil
}
