// Package analytics_tools registers the read-only analytics tools: goal and
// task statistics, keyword extraction, completion prediction, goal reports
// and the weekly summary.
//
// Results are cached by the aggregator until a goal is written or the
// caller passes force_refresh. When the task service is unreachable the
// tools return empty statistics rather than errors.
package analytics_tools
