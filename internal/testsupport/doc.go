// Package testsupport builds throwaway git repositories for tests that exercise real git.
package testsupport
