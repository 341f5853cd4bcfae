package metrics

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const startKey = "metrics:start"

type gormPlugin struct {
	m *Metrics
}

// GormPlugin returns a gorm.Plugin that counts and times every statement.
// Install it with db.Use.
func (m *Metrics) GormPlugin() gorm.Plugin {
	return &gormPlugin{m: m}
}

func (p *gormPlugin) Name() string { return "beesmart:metrics" }

func (p *gormPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("metrics:before_create", before),
		cb.Create().After("gorm:create").Register("metrics:after_create", p.after("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", before),
		cb.Query().After("gorm:query").Register("metrics:after_query", p.after("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", before),
		cb.Update().After("gorm:update").Register("metrics:after_update", p.after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", p.after("delete")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", before),
		cb.Row().After("gorm:row").Register("metrics:after_row", p.after("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", p.after("raw")),
	)
}

func before(db *gorm.DB) {
	db.InstanceSet(startKey, time.Now())
}

func (p *gormPlugin) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		status := "ok"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
		}
		p.m.dbOperations.WithLabelValues(table, op, status).Inc()

		if v, ok := db.InstanceGet(startKey); ok {
			if start, ok := v.(time.Time); ok {
				p.m.dbDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
			}
		}
	}
}
