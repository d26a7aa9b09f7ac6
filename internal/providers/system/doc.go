// Package system provides the "system" service: process information, server
// time, a ping, registry stats and the most recent diagnostics captured from
// the server log.
package system
