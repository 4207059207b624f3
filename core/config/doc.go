// Package config provides configuration management for the loader.
//
// It uses Viper to read environment variables, optionally seeded from a .env
// file through godotenv, over an optional loader.yaml file. Defaults come from
// the `default` struct tags of each section and are registered by reflection,
// so every key can be overridden by its upper-cased environment name
// (RECONCILE_CHUNK_SIZE -> reconcile.chunk_size). LoadConfig validates the
// result before returning it.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, job directory
//   - Database: driver and connection details
//   - Storage: S3/MinIO credentials, report bucket and prefix
//   - Log: level and format
//   - Reconcile: chunk size and progress interval
//   - Metrics: textfile output path
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Reconcile.ChunkSize)
package config
