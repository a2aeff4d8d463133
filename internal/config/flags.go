package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bizsync/internal/flagx"
)

// ValueFlags lists every flag that takes a value, including -c/-config.
// The CLI uses it to tell its command words apart from flag values.
var ValueFlags = []string{
	"-c", "-config",
	"-d", "-r", "-dsn", "-b", "-bucket", "-e", "-content", "-token", "-l", "-t",
}

// parseFlags overlays cfg with command-line flags. Only the flags listed
// above are considered, so command words and -c are left alone.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], ValueFlags[2:])

	fs := flag.NewFlagSet("bizsync", flag.ContinueOnError)

	fs.StringVar(&cfg.LocalDB, "d", cfg.LocalDB, "path of the local SQLite cache")
	fs.StringVar(&cfg.RemoteDriver, "r", cfg.RemoteDriver, "remote document store driver (postgres|memory)")
	fs.StringVar(&cfg.RemoteDSN, "dsn", cfg.RemoteDSN, "remote document store DSN")
	fs.StringVar(&cfg.BlobDriver, "b", cfg.BlobDriver, "blob store driver (s3|memory)")
	fs.StringVar(&cfg.S3.Bucket, "bucket", cfg.S3.Bucket, "S3 bucket for product images")
	fs.StringVar(&cfg.S3.Endpoint, "e", cfg.S3.Endpoint, "S3 endpoint override")
	fs.StringVar(&cfg.ContentRoot, "content", cfg.ContentRoot, "directory backing content:// references")
	fs.StringVar(&cfg.OwnerToken, "token", cfg.OwnerToken, "owner token to sign in with")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.DurationVar(&cfg.OperationTimeout, "t", cfg.OperationTimeout, "timeout of one backup or restore")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	return nil
}
