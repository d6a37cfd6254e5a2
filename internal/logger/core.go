package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore tees log entries at or above minLevel into the async DB writer
type DBCore struct {
	zapcore.Core
	writer   *DBLogWriter
	minLevel zapcore.Level
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter, minLevel zapcore.Level) zapcore.Core {
	return &DBCore{
		Core:     baseCore,
		writer:   writer,
		minLevel: minLevel,
	}
}

// With keeps the DB tee on derived loggers
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:     c.Core.With(fields),
		writer:   c.writer,
		minLevel: c.minLevel,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= c.minLevel {
		var ip, orgID string
		for _, f := range fields {
			switch f.Key {
			case "ip":
				ip = f.String
			case "org_id":
				orgID = f.String
			}
		}

		// Function name needs AddCaller and EncoderConfig.FunctionKey
		c.writer.AddLog(LogEntry{
			Level:     entry.Level,
			Message:   entry.Message,
			IpAddress: ip,
			OrgId:     orgID,
			Caller:    entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
