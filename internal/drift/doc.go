// Package drift classifies nested repositories against their tracked upstream branch.
//
// Classifier compares HEAD with origin/development, falling back to origin/main, and
// reports UP_TO_DATE, BEHIND_OR_DIVERGED or INDETERMINATE. Service drives a full report:
// it initializes and fetches nested repositories through a Walker and classifies each
// one in traversal order, recording failures on the affected repository.
package drift
