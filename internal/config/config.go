// Package config provides environment-variable configuration for the
// forwarder, loaded once at cold start and immutable afterwards.
package config

import (
	"fmt"
	"os"

	"github.com/biancatechnologies/mail-forwarder/internal/mapping"
)

const (
	defaultSendingDomain = "biancatechnologies.com"
	defaultRegion        = "us-east-2"
	defaultKeyPrefix     = "emails/"
)

// Config holds the forwarder's static configuration.
type Config struct {
	// Mappings resolves original recipients to forwarding destinations.
	Mappings mapping.Table
	// SendingDomain is the verified domain used for the noreply sender.
	SendingDomain string
	// Bucket is the default store bucket for inbound messages.
	Bucket string
	// Region is the AWS region for the store and dispatch clients.
	Region string
	// KeyPrefix is the object-key namespace that holds inbound messages.
	KeyPrefix string
}

// Load builds a Config from the environment. Missing optional values
// fall back to defaults; an unparsable mapping table is an error.
func Load() (*Config, error) {
	table, err := mapping.ParseTable(os.Getenv("EMAIL_MAPPINGS"))
	if err != nil {
		return nil, fmt.Errorf("EMAIL_MAPPINGS: %w", err)
	}

	cfg := &Config{
		Mappings:      table,
		SendingDomain: defaultSendingDomain,
		Bucket:        os.Getenv("S3_BUCKET"),
		Region:        defaultRegion,
		KeyPrefix:     defaultKeyPrefix,
	}

	if v := os.Getenv("FROM_DOMAIN"); v != "" {
		cfg.SendingDomain = v
	}
	// The Lambda runtime sets AWS_REGION; AWS_DEFAULT_REGION covers
	// local invocation.
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Region = v
	} else if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv("EMAIL_KEY_PREFIX"); v != "" {
		cfg.KeyPrefix = v
	}

	return cfg, nil
}

// SenderAddress returns the fixed no-reply address used as the
// outbound From, never the original sender.
func (c *Config) SenderAddress() string {
	return "noreply@" + c.SendingDomain
}
