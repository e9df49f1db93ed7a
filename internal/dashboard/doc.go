// Package dashboard wires the summary index, the selection state, and the
// detail loader into a session, and exposes the session through cobra
// commands that print chart data, export detail reports, and render the
// fleet-wide summary.
package dashboard
