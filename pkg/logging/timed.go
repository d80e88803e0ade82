package logging

import "time"

// TimedOperation measures one engine operation from StartTimer to End,
// logging the elapsed time as a latency field.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer begins timing. The fields are attached to the completion line.
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &TimedOperation{logger: logger, msg: msg, start: time.Now(), fields: fields}
}

// End logs the operation at info level with its latency.
func (t *TimedOperation) End() {
	t.logger.Info(t.msg, append(t.fields, Latency(time.Since(t.start)))...)
}

// EndError logs the operation at error level with its latency and cause.
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, append(t.fields, Latency(time.Since(t.start)), Error(err))...)
}
