package sqlxrepos

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursary/core"
)

// postgres error codes
const (
	fkViolation     = "23503"
	uniqueViolation = "23505"
)

type baseRepo struct {
	db *sqlx.DB
}

// getExec returns the executor given by the service (a *sqlx.Tx), or the repository's DB.
func (repo baseRepo) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 && svcExec[0] != nil {
		ext, ok := svcExec[0].(sqlx.ExtContext)
		if !ok {
			panic(fmt.Sprintf("sqlxrepos: unsupported executor %T", svcExec[0]))
		}
		return ext
	}
	return repo.db
}

// trapNoRowsErr maps "no rows" errors to the domain's not found error.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func pqCode(err error) (string, string) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

func isUniqueViolation(err error) bool {
	code, _ := pqCode(err)
	return code == uniqueViolation
}

func isFKViolation(err error) bool {
	code, _ := pqCode(err)
	return code == fkViolation
}

// affected returns notFound when res touched no row.
func affected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullIntFrom(i int) null.Int {
	return null.NewInt(i, i != 0)
}
