// Package app wires application dependencies for the CLI and the daemon.
//
// Config is read from viper (flags, AGENTLINK_* environment variables and
// an optional config file). NewWire builds the keystore, registry, session
// store, authenticator and transport from it; Server runs the HTTP surface,
// the metrics listener and the expiry sweeper until its context ends.
package app
