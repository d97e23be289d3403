package logx

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Timer struct {
	start time.Time
	id    string
	comp  string
	op    string
}

func Start(id, comp, op string) *Timer {
	return &Timer{
		start: time.Now(),
		id:    id,
		comp:  comp,
		op:    op,
	}
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the elapsed time and returns it.
func (t *Timer) End() time.Duration {
	elapsed := t.Elapsed()
	logGeneric(zapcore.InfoLevel, t.id, t.comp, "[TIMING] %s = %v", t.op, elapsed)
	return elapsed
}
