// Package secret resolves event-store credentials kept as scy secrets.
package secret

import (
	"context"
	"fmt"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/toolbox"
)

// Credentials are basic event-store credentials.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Service reveals scy-encrypted secrets.
type Service struct {
	scyService *scy.Service
}

// New creates a secret service
func New() *Service {
	return &Service{scyService: scy.New()}
}

// Basic loads basic credentials from URL, decrypting with key
// (e.g. blowfish://default).
func (s *Service) Basic(ctx context.Context, URL, key string) (*Credentials, error) {
	if URL == "" {
		return nil, fmt.Errorf("credentials URL cannot be empty")
	}
	target, err := cred.TargetType("basic")
	if err != nil {
		return nil, err
	}
	resource := scy.NewResource(target, URL, key)
	secret, err := s.scyService.Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from %s: %w", URL, err)
	}
	if secret.IsPlain || secret.Target == nil {
		return nil, fmt.Errorf("credentials at %s are not basic credentials", URL)
	}
	return toCredentials(secret.Target)
}

func toCredentials(target interface{}) (*Credentials, error) {
	aMap := map[string]interface{}{}
	if err := toolbox.DefaultConverter.AssignConverted(&aMap, target); err != nil {
		return nil, fmt.Errorf("failed to convert credentials: %w", err)
	}
	aMap = toolbox.DeleteEmptyKeys(aMap)
	ret := &Credentials{}
	if err := toolbox.DefaultConverter.AssignConverted(ret, aMap); err != nil {
		return nil, fmt.Errorf("failed to convert credentials: %w", err)
	}
	if ret.Username == "" {
		return nil, fmt.Errorf("credentials have empty username")
	}
	return ret, nil
}
