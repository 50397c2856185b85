/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a log level.
type Level = zapcore.Level

// Log levels.
const (
	DEBUG   = zapcore.DebugLevel
	INFO    = zapcore.InfoLevel
	WARNING = zapcore.WarnLevel
	ERROR   = zapcore.ErrorLevel
	PANIC   = zapcore.PanicLevel
)

// Encoding is the log output encoding.
type Encoding string

// Supported encodings.
const (
	Console Encoding = "console"
	JSON    Encoding = "json"
)

const defaultModuleName = ""

var levels = newModuleLevels() //nolint:gochecknoglobals

// Log is a module logger. Field-based methods come from the embedded zap logger.
type Log struct {
	*zap.Logger
	sugared *zap.SugaredLogger
	module  string
}

type options struct {
	stdOut   zapcore.WriteSyncer
	stdErr   zapcore.WriteSyncer
	encoding Encoding
}

// Option configures a module logger.
type Option func(o *options)

// WithStdOut sets the output for debug, info and warning logs.
func WithStdOut(stdOut zapcore.WriteSyncer) Option {
	return func(o *options) {
		o.stdOut = stdOut
	}
}

// WithStdErr sets the output for error and panic logs.
func WithStdErr(stdErr zapcore.WriteSyncer) Option {
	return func(o *options) {
		o.stdErr = stdErr
	}
}

// WithEncoding sets the output encoding.
func WithEncoding(encoding Encoding) Option {
	return func(o *options) {
		o.encoding = encoding
	}
}

// New returns a logger for the given module. The module's level is looked up on every call
// so SetLevel and SetSpec take effect on existing loggers.
func New(module string, opts ...Option) *Log {
	o := &options{
		stdOut:   zapcore.Lock(os.Stdout),
		stdErr:   zapcore.Lock(os.Stderr),
		encoding: Console,
	}

	for _, opt := range opts {
		opt(o)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if o.encoding == JSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	enabled := moduleLevelEnabler(module)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, o.stdOut, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l < ERROR && enabled(l)
		})),
		zapcore.NewCore(encoder, o.stdErr, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= ERROR && enabled(l)
		})),
	)

	zl := zap.New(core, zap.AddCaller()).Named(module)

	return &Log{
		Logger:  zl,
		sugared: zl.WithOptions(zap.AddCallerSkip(1)).Sugar(),
		module:  module,
	}
}

// Module returns the module name.
func (l *Log) Module() string {
	return l.module
}

// Debugf logs a formatted message at debug level.
func (l *Log) Debugf(msg string, args ...interface{}) {
	l.sugared.Debugf(msg, args...)
}

// Infof logs a formatted message at info level.
func (l *Log) Infof(msg string, args ...interface{}) {
	l.sugared.Infof(msg, args...)
}

// Warnf logs a formatted message at warning level.
func (l *Log) Warnf(msg string, args ...interface{}) {
	l.sugared.Warnf(msg, args...)
}

// Errorf logs a formatted message at error level.
func (l *Log) Errorf(msg string, args ...interface{}) {
	l.sugared.Errorf(msg, args...)
}

// IsEnabled returns true if the given level is enabled for this logger's module.
func (l *Log) IsEnabled(level Level) bool {
	return GetLevel(l.module) <= level
}

func moduleLevelEnabler(module string) func(zapcore.Level) bool {
	return func(l zapcore.Level) bool {
		return l >= levels.get(module)
	}
}

// SetLevel sets the log level for the given module.
func SetLevel(module string, level Level) {
	levels.set(module, level)
}

// SetDefaultLevel sets the level used by modules without an explicit level.
func SetDefaultLevel(level Level) {
	levels.set(defaultModuleName, level)
}

// GetLevel returns the log level for the given module.
func GetLevel(module string) Level {
	return levels.get(module)
}

// ParseLevel parses a level name. "warn" and "warning" are equivalent, "critical" maps to PANIC.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARNING, nil
	case "error":
		return ERROR, nil
	case "panic", "critical", "fatal":
		return PANIC, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s", s)
	}
}

// SetSpec sets the levels from a spec of the form module1=level1:module2=level2:defaultLevel.
func SetSpec(spec string) error {
	parsed := make(map[string]Level)

	for _, part := range strings.Split(spec, ":") {
		if part == "" {
			continue
		}

		kv := strings.Split(part, "=")

		switch len(kv) {
		case 1:
			level, err := ParseLevel(kv[0])
			if err != nil {
				return err
			}

			parsed[defaultModuleName] = level
		case 2: //nolint:gomnd
			level, err := ParseLevel(kv[1])
			if err != nil {
				return err
			}

			parsed[kv[0]] = level
		default:
			return fmt.Errorf("invalid log spec: %s", spec)
		}
	}

	levels.replace(parsed)

	return nil
}

// GetSpec returns the current log spec.
func GetSpec() string {
	return levels.spec()
}

type moduleLevels struct {
	mutex  sync.RWMutex
	levels map[string]Level
}

func newModuleLevels() *moduleLevels {
	return &moduleLevels{levels: map[string]Level{defaultModuleName: INFO}}
}

func (m *moduleLevels) get(module string) Level {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if level, ok := m.levels[module]; ok {
		return level
	}

	return m.levels[defaultModuleName]
}

func (m *moduleLevels) set(module string, level Level) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.levels[module] = level
}

func (m *moduleLevels) replace(levels map[string]Level) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := levels[defaultModuleName]; !ok {
		levels[defaultModuleName] = m.levels[defaultModuleName]
	}

	m.levels = levels
}

func (m *moduleLevels) spec() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var modules []string

	for module, level := range m.levels {
		if module != defaultModuleName {
			modules = append(modules, module+"="+level.CapitalString())
		}
	}

	sort.Strings(modules)

	return strings.Join(append(modules, m.levels[defaultModuleName].CapitalString()), ":")
}
