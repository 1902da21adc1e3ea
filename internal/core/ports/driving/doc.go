// Package driving defines interfaces that external actors (CLI, MCP clients,
// the session watcher) use to interact with core services.
//
// These are "primary" or "driving" ports in hexagonal architecture terms.
// The core services implement these interfaces, and the adapters call them.
package driving
