package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/shopspring/decimal"
)

func localValue(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: timemath.FormatLocal(t), Valid: true}
}

func scanLocal(ns sql.NullString, loc *time.Location) *time.Time {
	if !ns.Valid {
		return nil
	}
	return timemath.ParseLocal(ns.String, loc)
}

func dateValue(t time.Time) string {
	return t.Format(timemath.DateLayout)
}

func scanDate(s string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(timemath.DateLayout, s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func hoursValue(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func scanHours(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return timemath.Zero
	}
	return d
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
