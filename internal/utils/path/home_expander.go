package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant        = "~"
	forwardSlashSymbolConstant = "/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves an environment variable.
type EnvironmentLookup func(name string) (string, bool)

// HomeExpander resolves configured paths such as workspace roots: a leading ~ becomes the
// user's home directory and $VARIABLE or ${VARIABLE} references are substituted.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	initializationGuard   sync.Once
}

// NewHomeExpander constructs a HomeExpander backed by the operating system.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProviders(os.UserHomeDir, os.LookupEnv)
}

// NewHomeExpanderWithProviders constructs a HomeExpander with custom lookups; nil
// arguments fall back to the operating system.
func NewHomeExpanderWithProviders(homeDirectoryProvider HomeDirectoryProvider, environmentLookup EnvironmentLookup) *HomeExpander {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &HomeExpander{homeDirectoryProvider: homeDirectoryProvider, environmentLookup: environmentLookup}
}

// Expand substitutes environment references, then resolves a leading ~ or ~/ prefix.
// Unknown variables expand to an empty string; ~user forms are left untouched.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := os.Expand(candidatePath, func(name string) string {
		value, _ := expander.environmentLookup(name)
		return value
	})
	if !strings.HasPrefix(expandedPath, tildeSymbolConstant) {
		return expandedPath
	}

	homeDirectory := expander.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return expandedPath
	}
	if expandedPath == tildeSymbolConstant {
		return homeDirectory
	}
	for _, separator := range []string{forwardSlashSymbolConstant, string(os.PathSeparator)} {
		if strings.HasPrefix(expandedPath, tildeSymbolConstant+separator) {
			return filepath.Join(homeDirectory, expandedPath[len(tildeSymbolConstant+separator):])
		}
	}
	return expandedPath
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		homeDirectory, lookupError := expander.homeDirectoryProvider()
		if lookupError == nil {
			expander.homeDirectory = homeDirectory
		}
	})
	return expander.homeDirectory
}
