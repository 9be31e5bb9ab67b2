package accounts

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter makes a zerolog.Logger satisfy the package Logger interface.
// Key-value pairs passed after the format string are attached as fields, the
// same call shape the default logger accepts.
type ZerologAdapter struct {
	logger zerolog.Logger
}

var _ Logger = (*ZerologAdapter)(nil)

// NewZerologAdapter wraps the given zerolog logger
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (z *ZerologAdapter) Debug(format string, args ...any) {
	z.emit(z.logger.Debug(), format, args)
}

func (z *ZerologAdapter) Info(format string, args ...any) {
	z.emit(z.logger.Info(), format, args)
}

func (z *ZerologAdapter) Warn(format string, args ...any) {
	z.emit(z.logger.Warn(), format, args)
}

func (z *ZerologAdapter) Error(format string, args ...any) {
	z.emit(z.logger.Error(), format, args)
}

func (z *ZerologAdapter) emit(evt *zerolog.Event, msg string, args []any) {
	fields, rest := splitFieldPairs(args)
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}

	if len(rest) > 0 {
		evt.Msgf(msg, rest...)
		return
	}
	evt.Msg(msg)
}

// splitFieldPairs separates trailing "key", value pairs from format arguments.
// Loggers in this package are called either printf style or with key-value
// tails ("error", err); we only treat the tail as fields when every element
// pairs up with a string key.
func splitFieldPairs(args []any) (map[string]any, []any) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, args
	}

	fields := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, args
		}
		fields[key] = args[i+1]
	}

	return fields, nil
}
