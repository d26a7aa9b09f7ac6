// Package providers holds the tool services registered with the service
// registry.
//
// Each provider implements service.Provider:
//   - Definition(): service metadata and tool definitions
//   - Execute(): runs a tool with parameters and call context
//
// Available Providers:
//   - filesystem: file and directory operations on the host
//   - system: server info, captured logs and runtime stats
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(filesystem.NewProvider(filesystem.OS{}, logger))
//	registry.Register(system.NewProvider(system.WithVersion(version)))
package providers
