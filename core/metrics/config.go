package metrics

// Config holds configuration for run metrics.
type Config struct {
	// Textfile is the path of a node-exporter textfile written after each
	// CLI run. Empty disables it.
	Textfile string `mapstructure:"textfile" default:""`
}
