// Package errors provides classified, structured errors for sitebuilder.
//
// Build failures come in two scopes: page-scoped (a single template fails to
// evaluate, a layout chain cycles, a processor rejects its input) and
// process-scoped (configuration cannot be loaded). Page-scoped errors are
// ordinary values collected into the build report; process-scoped errors are
// created with SeverityFatal and abort the build. The category on every error
// lets the CLI and the watch loop route failures without string matching.
package errors
