/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log controls the levels of the loggers used by the did-core packages.
//
// Levels are set per module, where a module is the logger name (for example
// "did-core-ion"). Modules without their own level use the default level.
package log

import (
	"github.com/trustbloc/did-core-go/pkg/internal/log"
)

// Level is a log level.
type Level = log.Level

// Log levels, from most to least verbose.
const (
	DEBUG   = log.DEBUG
	INFO    = log.INFO
	WARNING = log.WARNING
	ERROR   = log.ERROR
	PANIC   = log.PANIC
)

// SetLevel overrides the level of module.
func SetLevel(module string, level Level) { log.SetLevel(module, level) }

// SetDefaultLevel sets the level of every module without an override.
func SetDefaultLevel(level Level) { log.SetDefaultLevel(level) }

// GetLevel returns the effective level of module.
func GetLevel(module string) Level { return log.GetLevel(module) }

// SetSpec applies a level spec of the form "ion=debug:dht=error:info", where
// the trailing level without a module name is the new default.
func SetSpec(spec string) error { return log.SetSpec(spec) }

// GetSpec returns the current levels in the format accepted by SetSpec.
func GetSpec() string { return log.GetSpec() }

// ParseLevel parses a level name. "critical" maps to PANIC.
func ParseLevel(level string) (Level, error) { return log.ParseLevel(level) }
