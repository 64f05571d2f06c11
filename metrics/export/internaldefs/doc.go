// Package internaldefs holds the metric names, help strings, bucket bounds
// and live gauge readers shared by the exporters, so both expose the same
// names.
package internaldefs
