// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small interface so source files can be
// read from, and run reports written to, AWS S3 or self-hosted MinIO.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists and MakeBucket: ensure the report bucket exists.
//   - PutObject: uploads content (with size and options).
//   - GetObject: retrieves content as a stream.
//
// Object locations are written as "s3://bucket/key" and split with ParseURI.
// Storage is optional: commands only build a client when Config.Enabled.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.Upload(ctx, client, "reports", "runs/42.json", data, "application/json")
package storage
