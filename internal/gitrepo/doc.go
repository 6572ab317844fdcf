// Package gitrepo contains helpers for interrogating git repositories and their remotes.
//
// RepositoryManager answers work-tree and remote queries through a GitExecutor,
// while ParseRemoteURL, RepositoryName and SameRepository normalize remote URLs so
// that clone targets can be named and reused clones verified.
package gitrepo
