// Package commands defines the agentlink CLI.
//
// Commands
//
//   - init         Create the local identity
//   - fingerprint  Print the signing key fingerprint
//   - did          Print the local DID and public record
//   - register     Publish the public record to the DID file and/or server
//   - resolve      Look up a peer's record
//   - handshake    Establish a session with a peer and report it
//   - send         Establish a session and exchange messages
//
// Every flag can also be set through an AGENTLINK_* environment variable or
// a config file (--config). The root command builds the app.Wire before
// any subcommand runs.
package commands
