package db

import (
	"context"
	"fmt"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

// queryLogger routes gorm output through the service logger. Failed queries are
// not logged here; callers wrap and report them. Only slow statements are.
type queryLogger struct {
	logg *logger.Logger
	slow time.Duration
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return queryLogger{logg: logg, slow: slow}
}

func (q queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }

func (q queryLogger) Info(context.Context, string, ...any) {}

func (q queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	q.logg.Warn(q.logg.WithField(ctx, "gorm", fmt.Sprintf(msg, args...)), "db.warning")
}

func (q queryLogger) Error(ctx context.Context, msg string, args ...any) {
	q.logg.Error(ctx, "db.error", fmt.Errorf(msg, args...))
}

func (q queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), _ error) {
	if q.slow <= 0 {
		return
	}
	took := time.Since(begin)
	if took < q.slow {
		return
	}
	sql, rows := fc()
	q.logg.Warn(q.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": took.Milliseconds(),
	}), "db.slow_query")
}
