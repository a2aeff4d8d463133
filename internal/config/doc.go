// Package config loads runtime configuration for the bizsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed with BIZSYNC_ (e.g. BIZSYNC_REMOTE_DSN).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-d string        path of the local SQLite cache
//	-r string        remote document store driver: postgres or memory
//	-dsn string      remote document store DSN
//	-b string        blob store driver: s3 or memory
//	-bucket string   S3 bucket for product images
//	-e string        S3 endpoint override
//	-content string  directory that backs content:// image references
//	-token string    owner token to sign in with
//	-l string        log level
//	-t duration      timeout of one backup or restore
//
// # JSON schema
//
// Durations may be strings like "5m" or integer nanoseconds:
//
//	{
//	  "local_db": "bizsync.db",
//	  "remote_driver": "postgres",
//	  "remote_dsn": "postgres://bizsync@localhost/bizsync",
//	  "s3": {"bucket": "bizsync-images", "region": "eu-central-1"},
//	  "operation_timeout": "5m"
//	}
package config
