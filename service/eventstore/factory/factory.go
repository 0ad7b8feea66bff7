// Package factory opens an event store for a configured vendor.
package factory

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/eventstore/fs"
	"github.com/viant/roundtrip/service/eventstore/memory"
	esql "github.com/viant/roundtrip/service/eventstore/sql"
	"github.com/viant/roundtrip/service/secret"
)

// Supported vendors.
const (
	VendorMemory   = "memory"
	VendorFS       = "fs"
	VendorSQLite   = "sqlite"
	VendorPostgres = "postgres"
)

// Config describes the event store connection.
type Config struct {
	Vendor         string `json:"vendor" yaml:"vendor"`
	BaseURL        string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	DSN            string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Username       string `json:"username,omitempty" yaml:"username,omitempty"`
	Password       string `json:"password,omitempty" yaml:"password,omitempty"`
	CredentialsURL string `json:"credentialsURL,omitempty" yaml:"credentialsURL,omitempty"`
	CredentialsKey string `json:"credentialsKey,omitempty" yaml:"credentialsKey,omitempty"`
}

// Validate returns an error describing an invalid store configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Vendor) {
	case VendorMemory:
	case VendorFS:
		if c.BaseURL == "" {
			return fmt.Errorf("store.baseURL is required for fs vendor")
		}
	case VendorSQLite, VendorPostgres:
		if c.DSN == "" {
			return fmt.Errorf("store.dsn is required for %s vendor", c.Vendor)
		}
	default:
		return fmt.Errorf("unsupported store vendor: %q", c.Vendor)
	}
	return nil
}

// New opens the event store described by cfg.
func New(ctx context.Context, cfg *Config, secrets *secret.Service) (eventstore.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Vendor) {
	case VendorMemory:
		return memory.New(), nil
	case VendorFS:
		return fs.New(ctx, cfg.BaseURL)
	}
	dialect, err := esql.ParseDialect(cfg.Vendor)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DSN
	if dialect == esql.DialectPostgres {
		username, password := cfg.Username, cfg.Password
		if cfg.CredentialsURL != "" {
			if secrets == nil {
				secrets = secret.New()
			}
			credentials, err := secrets.Basic(ctx, cfg.CredentialsURL, cfg.CredentialsKey)
			if err != nil {
				return nil, err
			}
			username, password = credentials.Username, credentials.Password
		}
		if dsn, err = WithUserInfo(dsn, username, password); err != nil {
			return nil, err
		}
	}
	return esql.Open(ctx, dialect, dsn)
}

// WithUserInfo injects credentials into a URL-style DSN unless username is empty.
func WithUserInfo(dsn, username, password string) (string, error) {
	if username == "" {
		return dsn, nil
	}
	URL, err := url.Parse(dsn)
	if err != nil || URL.Scheme == "" {
		return "", fmt.Errorf("credentials require a URL dsn, got %q", dsn)
	}
	if password == "" {
		URL.User = url.User(username)
	} else {
		URL.User = url.UserPassword(username, password)
	}
	return URL.String(), nil
}
