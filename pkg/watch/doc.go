// Package watch ingests CSV cost exports dropped into a directory.
//
// A DirWatcher reports created or written files with a watched extension,
// debounced per path so a file written in several chunks is handled once.
// An Importer turns each reported file into a cost report and evaluates it
// against the configured account's budgets.
package watch
