// internal/store/store.go
package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors translated from driver-level failures. Services map these
// onto the caller-facing error taxonomy.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrStaleVersion = errors.New("stale record version")
)

// translate collapses driver errors into store sentinels. Unique-constraint
// violations are the authoritative idempotency guard for KYC and risk rows.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
