// Package cli constructs the evidencia command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives around the dashboard commands.
package cli
