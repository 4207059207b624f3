// Package extract reads delimited input files into raw rows.
//
// Sources are local paths or "s3://bucket/key" objects fetched through the
// storage client. The first line is the header; the separator defaults to '|'.
package extract
