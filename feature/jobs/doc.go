// Package jobs loads delimited files into database tables from YAML job
// definitions.
//
// A job is a list of steps. Each step reads one source, maps its columns to
// record fields and reconciles the records into one table, either by a key
// column or, for join tables, by the pair of references given in its pair
// block. A field or pair end may look up the ids stored by an earlier step.
//
//	name: library
//	steps:
//	  - name: authors
//	    table: authors
//	    key: code
//	    source: s3://imports/authors.csv
//	    fields:
//	      - {source: code}
//	      - {source: name, rule: normalize}
//	  - name: books
//	    table: books
//	    key: isbn
//	    source: data/books.csv
//	    fields:
//	      - {source: isbn}
//	      - {source: title}
//	      - {source: author, name: author_id, rule: fk, lookup: authors}
//	      - {source: published, name: published_on, rule: date, format: "%Y-%m-%d"}
//
// # Execution
//
// Plan orders the steps into levels: a step follows every step it looks up,
// and steps on the same table never share a level. The Runner runs each level
// with an errgroup and stops at the first failing step. The Service adds
// per-table locks, background runs for the HTTP API and report publishing.
package jobs
