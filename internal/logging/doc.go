// Package logging provides structured logging for the hive engine.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support. It is designed to help troubleshoot a busy
// engine after the fact: every entry can carry the agent, task, and
// component it concerns, and the aggregation utilities filter and export
// the result.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (agent ID, task ID, component)
//   - Size-based log rotation via lumberjack, with optional gzip compression
//   - Log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer safely.
//
// # Basic Usage
//
// Create a logger writing to a rotating file:
//
//	logger, err := logging.NewLogger("/var/log/hive/hive.log", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("task assigned", "score", 0.82)
//	logger.Warn("snapshot store unavailable, continuing in memory")
//	logger.Error("execution failed", "error", err.Error())
//
// An empty file path logs to stderr without rotation.
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	agentLogger := logger.WithAgent(agentID.String())
//	taskLogger := agentLogger.WithTask(taskID.String())
//	taskLogger.Info("assignment made", "score", 0.82)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"assignment made","agent_id":"...","task_id":"...","score":0.82}
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
//
// # Log Aggregation and Filtering
//
// Read and analyze logs after a run:
//
//	entries, err := logging.AggregateLogs("/var/log/hive/hive.log")
//	if err != nil {
//	    return err
//	}
//	filtered := logging.FilterLogs(entries, logging.LogFilter{
//	    Level:   "WARN",
//	    AgentID: agentID.String(),
//	})
//	logging.ExportLogEntries(filtered, "errors.csv", "csv")
package logging
