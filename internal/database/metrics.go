package database

import (
	"fmt"
	"time"

	"yatube/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "yatube:query_start"

// registerMetrics times every gorm operation into the query latency histogram.
func registerMetrics(db *gorm.DB) error {
	cb := db.Callback()
	ops := []struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, op := range ops {
		if err := op.before("metrics:before_"+op.name, startTimer); err != nil {
			return fmt.Errorf("register %s metrics callback: %w", op.name, err)
		}
		if err := op.after("metrics:after_"+op.name, observe(op.name)); err != nil {
			return fmt.Errorf("register %s metrics callback: %w", op.name, err)
		}
	}
	return nil
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
