// Package submodules walks the nested repositories of a repository tree.
//
// The Service initializes and updates submodules recursively, lists them in
// depth-first order and fetches their remote state level by level, aggregating
// per-repository fetch failures instead of aborting the walk.
package submodules
