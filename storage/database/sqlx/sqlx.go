package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/student"
)

// PostgreSQL error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// mapConstraintErr maps foreign key violations to fkErr and student ID collisions to student.ErrStudentIDExists.
func mapConstraintErr(err error, fkErr error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		switch pqErr.Code {
		case foreignKeyViolation:
			if fkErr != nil {
				return fkErr
			}
		case uniqueViolation:
			if pqErr.Constraint == "student_student_id_key" {
				return student.ErrStudentIDExists
			}
		}
	}
	return errors.Wrap(err, msg)
}

func checkAffected(res sql.Result, notFoundErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
