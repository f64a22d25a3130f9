// Package goal_tools registers the goal management tools: create, list,
// read, update and delete goals, record progress, and match tasks against
// active goals.
//
// Write tools are only registered when the server is not read-only.
package goal_tools
