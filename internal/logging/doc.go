// Package logging holds the slog setup of the server and the small Logger
// interface accepted by the host clients and the goal repository.
//
// Components log with the shared attribute keys:
//
//	logger.Warn("skipping unreadable goal", logging.KeyGoalID, item.ID, logging.KeyError, err.Error())
//
// Tests pass DiscardLogger or a SlogAdapter over a buffer.
package logging
