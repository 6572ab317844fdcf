// Package shared declares the collaborator interfaces that fleet services depend on.
package shared
