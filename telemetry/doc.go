// Package telemetry builds the logger, metrics registry and tracer provider
// shared by the client, the tool server and the CLI.
package telemetry
