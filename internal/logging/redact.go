package logging

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apiariosamano/colmena/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// Secret creates a field for a config.Secret that only reveals its length.
func Secret(key string, val config.Secret) zap.Field {
	return zap.String(key, fmt.Sprintf("[REDACTED:%d]", len(val.Value())))
}

type redactor struct {
	fields   map[string]bool
	patterns []*regexp.Regexp
}

// newRedactor returns nil when redaction is disabled.
func newRedactor(cfg RedactionConfig) (*redactor, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	r := &redactor{fields: make(map[string]bool, len(cfg.Fields))}
	for _, f := range cfg.Fields {
		r.fields[strings.ToLower(f)] = true
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *redactor) field(f zapcore.Field) zapcore.Field {
	if r.fields[strings.ToLower(f.Key)] {
		return zap.String(f.Key, redacted)
	}
	if f.Type == zapcore.StringType {
		for _, re := range r.patterns {
			if re.MatchString(f.String) {
				return zap.String(f.Key, re.ReplaceAllString(f.String, redacted))
			}
		}
	}
	return f
}

func (r *redactor) apply(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = r.field(f)
	}
	return out
}

func (r *redactor) message(msg string) string {
	for _, re := range r.patterns {
		msg = re.ReplaceAllString(msg, redacted)
	}
	return msg
}

// redactingCore rewrites fields before they reach the encoder, so every
// output (stdout, OTEL) sees the same redacted view.
type redactingCore struct {
	zapcore.Core
	r *redactor
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.r.apply(fields)), r: c.r}
}

func (c *redactingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *redactingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	e.Message = c.r.message(e.Message)
	return c.Core.Write(e, c.r.apply(fields))
}
