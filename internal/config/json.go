package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bizsync/internal/flagx"
	"github.com/dmitrijs2005/bizsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty
// values leave the corresponding Config field unchanged.
type JsonConfig struct {
	LocalDB      string `json:"local_db"`
	RemoteDriver string `json:"remote_driver"`
	RemoteDSN    string `json:"remote_dsn"`
	BlobDriver   string `json:"blob_driver"`
	S3           struct {
		Bucket        string `json:"bucket"`
		Region        string `json:"region"`
		Endpoint      string `json:"endpoint"`
		AccessKey     string `json:"access_key"`
		SecretKey     string `json:"secret_key"`
		PublicBaseURL string `json:"public_base_url"`
		PathStyle     *bool  `json:"path_style"`
	} `json:"s3"`
	ContentRoot      string         `json:"content_root"`
	TempDir          string         `json:"temp_dir"`
	TokenSecret      string         `json:"token_secret"`
	OwnerToken       string         `json:"owner_token"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
	OperationTimeout timex.Duration `json:"operation_timeout"`
}

// parseJson overlays cfg with the file named by -c or -config, if any.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", jsonConfigFile, err)
	}

	set(&cfg.LocalDB, jc.LocalDB)
	set(&cfg.RemoteDriver, jc.RemoteDriver)
	set(&cfg.RemoteDSN, jc.RemoteDSN)
	set(&cfg.BlobDriver, jc.BlobDriver)
	set(&cfg.S3.Bucket, jc.S3.Bucket)
	set(&cfg.S3.Region, jc.S3.Region)
	set(&cfg.S3.Endpoint, jc.S3.Endpoint)
	set(&cfg.S3.AccessKey, jc.S3.AccessKey)
	set(&cfg.S3.SecretKey, jc.S3.SecretKey)
	set(&cfg.S3.PublicBaseURL, jc.S3.PublicBaseURL)
	if jc.S3.PathStyle != nil {
		cfg.S3.PathStyle = *jc.S3.PathStyle
	}
	set(&cfg.ContentRoot, jc.ContentRoot)
	set(&cfg.TempDir, jc.TempDir)
	set(&cfg.TokenSecret, jc.TokenSecret)
	set(&cfg.OwnerToken, jc.OwnerToken)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.LogFormat, jc.LogFormat)
	if jc.OperationTimeout.Duration > 0 {
		cfg.OperationTimeout = jc.OperationTimeout.Duration
	}
	return nil
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
