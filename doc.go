// Package treelog implements a hierarchical logging repository with
// cascading event dispatch.
//
// Applications obtain named loggers from a Hierarchy. Logger names form a
// dot-separated tree: "app.store.sqlite" is a descendant of "app.store",
// which descends from "app", which descends from the root. A logger without
// an explicit level inherits the nearest ancestor's level, and events
// delivered to a logger cascade to the appenders of every ancestor until a
// non-additive node is reached.
//
// The package owns the tree, level resolution, and dispatch only. Rendering
// and concrete sinks live in the layout and appenders subpackages, ambient
// diagnostic context in logctx, and TOML-driven wiring in config.
//
// A Hierarchy is safe for concurrent use: live logging calls may run while
// other goroutines create loggers or reconfigure levels, additivity, and
// appenders.
package treelog
