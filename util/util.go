package util

import "log"

// Logging is a clumsy switch that affects what Logf does.
//
// The rebind command turns it on with --verbose.  The engine's Debug
// flag and the Couplings' Verbose flags usually follow it.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}

// Warnf always logs, with a "warning" prefix.
func Warnf(format string, args ...interface{}) {
	log.Printf("warning: "+format, args...)
}
