// Package drift wires the submodule-drift command: it assembles the nested repository
// walker, the drift classifier and the report renderer behind a cobra command.
package drift
