package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Secret names
const (
	SecretKey          = "SECRET_KEY"
	SuperadminUsername = "SUPERADMIN_USERNAME"
	SuperadminPassword = "SUPERADMIN_PASSWORD"
)

// SecretResolver looks up a named secret
type SecretResolver interface {
	Lookup(name string) (string, bool)
}

// ResolverFunc adapts a function to SecretResolver
type ResolverFunc func(name string) (string, bool)

func (f ResolverFunc) Lookup(name string) (string, bool) { return f(name) }

// EnvResolver reads secrets from the process environment
func EnvResolver() SecretResolver {
	return ResolverFunc(func(name string) (string, bool) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	})
}

// StaticResolver serves secrets from a fixed map
type StaticResolver map[string]string

func (s StaticResolver) Lookup(name string) (string, bool) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// DefaultSecrets are used when neither the environment nor the secrets
// file supplies a value
func DefaultSecrets() StaticResolver {
	return StaticResolver{
		SecretKey:          "default_secret_key",
		SuperadminUsername: "superadmin",
		SuperadminPassword: "changeme",
	}
}

// Chain tries each resolver in order and returns the first hit
type Chain []SecretResolver

func (c Chain) Lookup(name string) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// SecretsFile is an external secret store. Any format cleanenv reads
// (yaml, json, toml, edn, env) is accepted.
type SecretsFile struct {
	SecretKey          string                    `yaml:"SECRET_KEY" json:"SECRET_KEY" toml:"SECRET_KEY" edn:"SECRET_KEY"`
	SuperadminUsername string                    `yaml:"SUPERADMIN_USERNAME" json:"SUPERADMIN_USERNAME" toml:"SUPERADMIN_USERNAME" edn:"SUPERADMIN_USERNAME"`
	SuperadminPassword string                    `yaml:"SUPERADMIN_PASSWORD" json:"SUPERADMIN_PASSWORD" toml:"SUPERADMIN_PASSWORD" edn:"SUPERADMIN_PASSWORD"`
	Users              map[string]UserCredential `yaml:"users" json:"users" toml:"users" edn:"users"`
}

// LoadSecretsFile reads path. A missing file yields an empty store.
func LoadSecretsFile(path string) (*SecretsFile, error) {
	var s SecretsFile
	if path == "" {
		return &s, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &s, nil
	}
	if err := cleanenv.ReadConfig(path, &s); err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	return &s, nil
}

func (s *SecretsFile) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	var v string
	switch name {
	case SecretKey:
		v = s.SecretKey
	case SuperadminUsername:
		v = s.SuperadminUsername
	case SuperadminPassword:
		v = s.SuperadminPassword
	}
	return v, v != ""
}

// DefaultResolver resolves from the environment, then file, then defaults
func DefaultResolver(file *SecretsFile) SecretResolver {
	return Chain{EnvResolver(), file, DefaultSecrets()}
}
