package logging

import "time"

// TimedOperation measures an operation and logs it with its latency.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer begins timing an operation. The fields are repeated on the
// closing log line.
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: OrNop(logger),
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the operation started.
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at INFO with its latency.
func (t *TimedOperation) End(fields ...Field) {
	t.logger.Info(t.msg, t.merge(fields, Latency(t.Elapsed()))...)
}

// EndError logs the operation as failed.
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg+" failed", t.merge(nil, Latency(t.Elapsed()), Error(err))...)
}

func (t *TimedOperation) merge(extra []Field, tail ...Field) []Field {
	out := make([]Field, 0, len(t.fields)+len(extra)+len(tail))
	out = append(out, t.fields...)
	out = append(out, extra...)
	return append(out, tail...)
}
