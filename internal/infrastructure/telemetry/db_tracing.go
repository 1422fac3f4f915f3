package telemetry

import (
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls GORM span export
type DBTracingConfig struct {
	Enabled    bool
	LogFullSQL bool   // include bound values in db.statement (dev only)
	DBSystem   string // "postgresql" or "sqlite"
}

// RegisterDBTracing installs the otelgorm plugin and a callback that tags
// spans with the table and affected row count
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	for name, register := range map[string]func(string, func(*gorm.DB)) error{
		"flock:span_tags_create": cb.Create().After("gorm:create").Register,
		"flock:span_tags_query":  cb.Query().After("gorm:query").Register,
		"flock:span_tags_update": cb.Update().After("gorm:update").Register,
		"flock:span_tags_delete": cb.Delete().After("gorm:delete").Register,
		"flock:span_tags_row":    cb.Row().After("gorm:row").Register,
		"flock:span_tags_raw":    cb.Raw().After("gorm:raw").Register,
	} {
		if err := register(name, tagSpan); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
	)
	return nil
}

func tagSpan(db *gorm.DB) {
	if db.Statement == nil || db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
}
