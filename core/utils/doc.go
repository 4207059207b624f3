// Package utils provides common helpers shared by the loader packages.
// It holds the loose type conversions used when reading values back from the
// database, the canonical string form used for change detection, and text
// normalisation for free-form input columns.
package utils
