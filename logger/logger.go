/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger wraps github.com/sirupsen/logrus behind the teacher's
// Debug/Info/Warning/Error/Fatal(message string, data interface{},
// args ...interface{}) method shape (see logger/log.go in the pack),
// without the teacher's full entry/level/fields sub-framework: this
// module has one consumer (the netlink pipeline) rather than the
// teacher's many HTTP/worker/mail components, so a single file
// suffices. Fields follows the teacher's logger/fields.go copy-on-write
// map idiom, kept nearly verbatim down to method names.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an immutable, copy-on-write map of structured log fields.
type Fields map[string]interface{}

// NewFields returns an empty Fields map.
func NewFields() Fields {
	return make(Fields)
}

func (f Fields) clone() Fields {
	res := make(Fields, len(f))
	for k, v := range f {
		res[k] = v
	}
	return res
}

// Add returns a copy of f with key set to val.
func (f Fields) Add(key string, val interface{}) Fields {
	res := f.clone()
	res[key] = val
	return res
}

// Merge returns a copy of f with every key of other applied on top.
func (f Fields) Merge(other Fields) Fields {
	if len(other) == 0 {
		return f
	}
	res := f.clone()
	for k, v := range other {
		res[k] = v
	}
	return res
}

// Logrus converts Fields to logrus.Fields for direct use with a
// *logrus.Entry.
func (f Fields) Logrus() logrus.Fields {
	return logrus.Fields(f.clone())
}

// Format selects the logrus formatter.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config configures a Logger.
type Config struct {
	Level  logrus.Level
	Format Format
	Output io.Writer
}

// Logger is a thin, leveled, structured logging wrapper. The zero
// value is not usable; construct with New.
type Logger struct {
	log    *logrus.Logger
	fields Fields
}

// New builds a Logger from Config. A nil Config.Output defaults to
// os.Stderr.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(cfg.Level)
	if cfg.Format == FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{log: l, fields: NewFields()}
}

// WithFields returns a child Logger carrying fields merged on top of
// the receiver's own fields; the receiver is left unmodified.
func (o *Logger) WithFields(fields Fields) *Logger {
	if o == nil {
		return nil
	}
	return &Logger{log: o.log, fields: o.fields.Merge(fields)}
}

func (o *Logger) entry(data interface{}) *logrus.Entry {
	fld := o.fields
	if data != nil {
		fld = fld.Add("data", data)
	}
	return o.log.WithFields(fld.Logrus())
}

// Debug logs message (formatted with args via fmt.Sprintf) at debug
// level, attaching data as the "data" field.
func (o *Logger) Debug(message string, data interface{}, args ...interface{}) {
	if o == nil {
		return
	}
	o.entry(data).Debug(fmt.Sprintf(message, args...))
}

// Info logs message at info level.
func (o *Logger) Info(message string, data interface{}, args ...interface{}) {
	if o == nil {
		return
	}
	o.entry(data).Info(fmt.Sprintf(message, args...))
}

// Warning logs message at warn level.
func (o *Logger) Warning(message string, data interface{}, args ...interface{}) {
	if o == nil {
		return
	}
	o.entry(data).Warn(fmt.Sprintf(message, args...))
}

// Error logs message at error level.
func (o *Logger) Error(message string, data interface{}, args ...interface{}) {
	if o == nil {
		return
	}
	o.entry(data).Error(fmt.Sprintf(message, args...))
}

// Fatal logs message at fatal level then calls os.Exit(1) (via
// logrus's own Fatal).
func (o *Logger) Fatal(message string, data interface{}, args ...interface{}) {
	if o == nil {
		return
	}
	o.entry(data).Fatal(fmt.Sprintf(message, args...))
}

// CheckError logs at lvlKO if err is non-nil, otherwise at lvlOK
// (skipped when lvlOK is above logrus.TraceLevel, i.e. out of range,
// matching the teacher's "NilLevel skips" convention). It returns
// whether an error was logged.
func (o *Logger) CheckError(lvlKO, lvlOK logrus.Level, message string, err error) bool {
	if o == nil {
		return err != nil
	}
	if err != nil {
		o.entry(err).Log(lvlKO, message)
		return true
	}
	if lvlOK <= logrus.TraceLevel {
		o.entry(nil).Log(lvlOK, message)
	}
	return false
}
