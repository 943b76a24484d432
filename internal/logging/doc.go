// Package logging holds the process-wide zap logger of the provisioning tools.
//
// Logging is silent unless a level is requested, either with the --log-level
// flag or the FRITZPROV_LOG_LEVEL environment variable. Operator-facing
// progress goes to stdout through the ui package; structured logs go to
// stderr so the two never interleave on the same stream.
//
//	if err := logging.Initialize(flagLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
//	logging.Info("provisioning started", zap.String("address", addr))
//
// Passwords are never logged. Session ids are logged in redacted form only.
package logging
