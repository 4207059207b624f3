package storage

// Config holds the object storage settings. Storage is optional: without an
// endpoint, s3:// sources fail and reports stay local.
type Config struct {
	// Endpoint is the host[:port] of the S3 compatible service. Empty disables storage.
	Endpoint string `mapstructure:"endpoint" default:""`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing, TLS handshakes and response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`

	// Bucket receives run reports.
	Bucket string `mapstructure:"bucket" default:"loader"`
	// ReportPrefix is the object key prefix of run reports. Empty disables uploads.
	ReportPrefix string `mapstructure:"report_prefix" default:""`
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}
