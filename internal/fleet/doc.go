// Package fleet defines the repository descriptors that make up a workspace.
package fleet
