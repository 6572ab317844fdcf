// Package report turns classified nested repositories into ordered report records and
// renders them as text, CSV, JSON or YAML.
package report
