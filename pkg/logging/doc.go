// Package logging builds the log/slog loggers used across callmock.
//
// Recorders and sessions accept a *slog.Logger; when none is given they log
// to Nop(). Create a configured logger with New:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//
// Inside Go tests, NewTestHandler sends records to testing.TB.Log so that
// matching decisions show up next to the failing assertion:
//
//	logger := slog.New(logging.NewTestHandler(t, logging.LevelDebug))
//
// MultiHandler fans one record out to several handlers, e.g. the console
// handler plus a JSON log file.
package logging
