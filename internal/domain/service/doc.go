// Package service provides the tool service registry.
//
// The registry keeps a catalog of service providers and routes tool calls to
// them by ID. A tool ID has the form "<service>.<tool>"; the part before the
// first dot selects the provider.
//
// Components:
//   - Registry: central service catalog
//   - Provider: interface for service implementations
//
// Features:
//   - Thread-safe service registration
//   - Category-based filtering
//   - Intent-based discovery with scoring
//   - Tool execution with per-call metrics and logging
//
// Example Usage:
//
//	registry := service.NewRegistry().WithMetrics(metrics).WithLogger(logger)
//	registry.Register(filesystem.NewProvider(filesystem.OS{}, logger))
//	result, err := registry.Execute(ctx, "filesystem.read_file_contents", params, appCtx)
package service
