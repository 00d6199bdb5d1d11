// Package report writes crawl results: the console listing, the plain
// result files, an optional Markdown run report and the diagnostics left
// behind by a fatal stop.
package report
