package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump is the log-only view of an error. It never reaches the buyer.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	// Driver is "pgx", "pq" or "sqlite" when a database error is in the chain.
	Driver       string `json:"driver,omitempty"`
	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.Driver, d.DBCode, d.DBMessage = "pgx", pgxErr.Code, pgxErr.Message
		d.DBConstraint, d.DBTable, d.DBColumn, d.DBDetail = pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail
	case errors.As(err, &pqErr):
		d.Driver, d.DBCode, d.DBMessage = "pq", string(pqErr.Code), pqErr.Message
		d.DBConstraint, d.DBTable, d.DBColumn, d.DBDetail = pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail
	case errors.As(err, &liteErr):
		d.Driver, d.DBCode, d.DBMessage = "sqlite", liteErr.ExtendedCode.Error(), liteErr.Error()
	}
	return d
}

// Fields flattens the dump into log fields, omitting empty database parts.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Driver == "" {
		return fields
	}
	fields["db_driver"] = d.Driver
	for key, value := range map[string]string{
		"db_code":       d.DBCode,
		"db_constraint": d.DBConstraint,
		"db_table":      d.DBTable,
		"db_column":     d.DBColumn,
		"db_detail":     d.DBDetail,
		"db_message":    d.DBMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
