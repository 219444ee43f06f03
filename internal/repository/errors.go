package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrDuplicate     = errors.New("record already exists")
	ErrNotFound      = errors.New("record not found")
	ErrQuotaExceeded = errors.New("daily quota exceeded")
)

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
