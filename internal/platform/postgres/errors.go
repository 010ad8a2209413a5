package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation        = "23505"
	numericValueOutOfRange  = "22003"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsNumericOverflow reports whether err is a numeric_value_out_of_range,
// raised when a BIGINT aggregate would overflow.
func IsNumericOverflow(err error) bool {
	return hasCode(err, numericValueOutOfRange)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
