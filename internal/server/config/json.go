package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/memevault/memevault/internal/flagx"
	"github.com/memevault/memevault/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON config files. Duration
// fields accept both "720h" strings and integer nanoseconds; pointer fields
// distinguish "absent" from "zero value" so the file only overrides what it
// sets.
type JsonConfig struct {
	EndpointAddr          *string         `json:"endpoint_addr"`
	PublicBaseURL         *string         `json:"public_base_url"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	S3AccessKey           *string         `json:"s3_access_key"`
	S3SecretKey           *string         `json:"s3_secret_key"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
	EnableIPRateLimit     *bool           `json:"enable_ip_rate_limit"`
}

// parseJson loads configuration from the file named by the -c/-config flag.
// If no flag is given, nothing is loaded. An unreadable or invalid file
// panics: a half-applied config is worse than no server.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.PublicBaseURL != nil {
		config.PublicBaseURL = *c.PublicBaseURL
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.S3AccessKey != nil {
		config.S3AccessKey = *c.S3AccessKey
	}
	if c.S3SecretKey != nil {
		config.S3SecretKey = *c.S3SecretKey
	}
	if c.S3Bucket != nil {
		config.S3Bucket = *c.S3Bucket
	}
	if c.S3Region != nil {
		config.S3Region = *c.S3Region
	}
	if c.S3BaseEndpoint != nil {
		config.S3BaseEndpoint = *c.S3BaseEndpoint
	}
	if c.EnableIPRateLimit != nil {
		config.EnableIPRateLimit = *c.EnableIPRateLimit
	}
}
