// Package goals implements goal tracking on top of a host task service.
//
// A goal is an ordinary host task living in a dedicated container (by
// default "🎯 目标管理"). Native task fields carry what the host understands:
// title, due date, completion and priority. Everything else (goal type,
// keywords, start date, habit frequency) is kept in a metadata block
// appended to the task content:
//
//	Read one book a month
//
//	--- Metadata ---
//	[Type: habit] [Keywords: books,reading] [Frequency: monthly:1]
//
// The codec in this package is the only code that knows this layout.
// Repository provides CRUD over goals and Matcher ranks goals against
// arbitrary task text.
package goals
