package fleet

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/temirov/gitfleet/internal/gitrepo"
)

const (
	noRepositoriesMessageConstant       = "no repositories configured"
	remoteURLRequiredMessageConstant    = "remote url required"
	invalidNameMessageConstant          = "name must be a single directory name"
	invalidDescriptorTemplateConstant   = "repository descriptor %d: %s"
	duplicateRepositoryTemplateConstant = "duplicate repository names: %s"
	unknownPrimaryRepositoryTemplate    = "primary repository %q is not configured"
	nameDerivationErrorTemplateConstant = "unable to derive name: %v"
	duplicateNameSeparatorConstant      = ", "
	currentDirectoryNameConstant        = "."
	parentDirectoryNameConstant         = ".."
	forbiddenNameCharactersConstant     = `/\`
)

// ErrNoRepositories indicates an empty descriptor set.
var ErrNoRepositories = errors.New(noRepositoriesMessageConstant)

// RepositoryDescriptor names one repository of the fleet and where to clone it from.
type RepositoryDescriptor struct {
	Name      string `mapstructure:"name" yaml:"name" json:"name"`
	RemoteURL string `mapstructure:"remote_url" yaml:"remote_url" json:"remote_url"`
}

// InvalidDescriptorError reports a descriptor that cannot be used as a clone target.
type InvalidDescriptorError struct {
	Index  int
	Reason string
}

func (descriptorError InvalidDescriptorError) Error() string {
	return fmt.Sprintf(invalidDescriptorTemplateConstant, descriptorError.Index, descriptorError.Reason)
}

// DuplicateRepositoryError reports names that appear more than once.
type DuplicateRepositoryError struct {
	Names []string
}

func (duplicateError DuplicateRepositoryError) Error() string {
	return fmt.Sprintf(duplicateRepositoryTemplateConstant, strings.Join(duplicateError.Names, duplicateNameSeparatorConstant))
}

// UnknownPrimaryRepositoryError reports a primary repository name absent from the set.
type UnknownPrimaryRepositoryError struct {
	Name string
}

func (primaryError UnknownPrimaryRepositoryError) Error() string {
	return fmt.Sprintf(unknownPrimaryRepositoryTemplate, primaryError.Name)
}

// DescriptorSet is an ordered, validated collection of descriptors with one primary repository.
type DescriptorSet struct {
	descriptors  []RepositoryDescriptor
	primaryIndex int
}

// NewDescriptorSet normalizes and validates descriptors. Empty names are derived from the
// remote URL; an empty primaryName selects the first descriptor.
func NewDescriptorSet(descriptors []RepositoryDescriptor, primaryName string) (DescriptorSet, error) {
	if len(descriptors) == 0 {
		return DescriptorSet{}, ErrNoRepositories
	}

	normalized := make([]RepositoryDescriptor, 0, len(descriptors))
	var validationErrors []error
	for descriptorIndex, descriptor := range descriptors {
		normalizedDescriptor, normalizationError := normalizeDescriptor(descriptorIndex, descriptor)
		if normalizationError != nil {
			validationErrors = append(validationErrors, normalizationError)
			continue
		}
		normalized = append(normalized, normalizedDescriptor)
	}
	if len(validationErrors) > 0 {
		return DescriptorSet{}, errors.Join(validationErrors...)
	}

	duplicates := lo.FindDuplicatesBy(normalized, func(descriptor RepositoryDescriptor) string {
		return descriptor.Name
	})
	if len(duplicates) > 0 {
		return DescriptorSet{}, DuplicateRepositoryError{Names: lo.Map(duplicates, func(descriptor RepositoryDescriptor, _ int) string {
			return descriptor.Name
		})}
	}

	primaryIndex := 0
	trimmedPrimary := strings.TrimSpace(primaryName)
	if len(trimmedPrimary) > 0 {
		primaryIndex = slices.IndexFunc(normalized, func(descriptor RepositoryDescriptor) bool {
			return descriptor.Name == trimmedPrimary
		})
		if primaryIndex < 0 {
			return DescriptorSet{}, UnknownPrimaryRepositoryError{Name: trimmedPrimary}
		}
	}

	return DescriptorSet{descriptors: normalized, primaryIndex: primaryIndex}, nil
}

// Descriptors returns a copy of the descriptors in configuration order.
func (set DescriptorSet) Descriptors() []RepositoryDescriptor {
	return slices.Clone(set.descriptors)
}

// Primary returns the repository whose nested repositories are initialized after cloning.
func (set DescriptorSet) Primary() RepositoryDescriptor {
	if len(set.descriptors) == 0 {
		return RepositoryDescriptor{}
	}
	return set.descriptors[set.primaryIndex]
}

// Len reports the number of descriptors.
func (set DescriptorSet) Len() int {
	return len(set.descriptors)
}

func normalizeDescriptor(descriptorIndex int, descriptor RepositoryDescriptor) (RepositoryDescriptor, error) {
	remoteURL := strings.TrimSpace(descriptor.RemoteURL)
	if len(remoteURL) == 0 {
		return RepositoryDescriptor{}, InvalidDescriptorError{Index: descriptorIndex, Reason: remoteURLRequiredMessageConstant}
	}

	name := strings.TrimSpace(descriptor.Name)
	if len(name) == 0 {
		derivedName, derivationError := gitrepo.RepositoryName(remoteURL)
		if derivationError != nil {
			return RepositoryDescriptor{}, InvalidDescriptorError{
				Index:  descriptorIndex,
				Reason: fmt.Sprintf(nameDerivationErrorTemplateConstant, derivationError),
			}
		}
		name = derivedName
	}

	if name == currentDirectoryNameConstant || name == parentDirectoryNameConstant || strings.ContainsAny(name, forbiddenNameCharactersConstant) {
		return RepositoryDescriptor{}, InvalidDescriptorError{Index: descriptorIndex, Reason: invalidNameMessageConstant}
	}

	return RepositoryDescriptor{Name: name, RemoteURL: remoteURL}, nil
}
