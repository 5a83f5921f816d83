// Package logging provides structured logging for rfqedit.
//
// This package wraps a global zap logger with convenience functions. Logging
// is silent unless a level is given on the command line or through the
// RFQEDIT_LOG_LEVEL environment variable.
//
// # Output
//
// The interactive view draws on stdout, so log output goes to a file:
//
//	if err := logging.Initialize("debug", "/tmp/rfqedit.log"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Dropped operations
//
// Remote failures never reach the user as errors; the view simply keeps
// its last known-good state. LogDropped is where they are recorded:
//
//	logging.LogDropped("patch_record", err, zap.String("field", field))
package logging
