// Package workspace lays out the data directory a session works in:
//
//	<data_dir>/clones/<unique_name>      shared clone per repository
//	<data_dir>/cache/<unique_name>.json  build cache table
//	<data_dir>/virtualenvs/              generator environments
//	<data_dir>/history.db                run history
//
// Persistent mode uses the configured data directory and keeps it between
// runs, which is what makes cache reuse possible. Ephemeral mode creates a
// timestamped directory (docversions-20251214-122336) for one-off builds and
// removes it on Cleanup.
package workspace
