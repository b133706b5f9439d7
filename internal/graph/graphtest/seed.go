package graphtest

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeedYAML []byte

// Seed is the declarative dataset a fake directory starts from.
type Seed struct {
	TenantID        string       `yaml:"tenantId"`
	VerifiedDomains []SeedDomain `yaml:"verifiedDomains"`
	Users           []SeedUser   `yaml:"users"`
}

// SeedDomain is a verified domain of the fake tenant.
type SeedDomain struct {
	Name    string `yaml:"name"`
	Default bool   `yaml:"default"`
}

// SeedUser is one directory account. Manager references another seed user by
// id or userPrincipalName. AccountEnabled defaults to true when omitted.
type SeedUser struct {
	ID                string        `yaml:"id"`
	Kind              string        `yaml:"kind"`
	DisplayName       string        `yaml:"displayName"`
	UserPrincipalName string        `yaml:"userPrincipalName"`
	Mail              string        `yaml:"mail"`
	MobilePhone       string        `yaml:"mobilePhone"`
	AccountEnabled    *bool         `yaml:"accountEnabled"`
	Manager           string        `yaml:"manager"`
	Consumer          bool          `yaml:"consumer"`
	Photo             string        `yaml:"photo"`
	RoamingSettings   *SeedSettings `yaml:"roamingSettings"`
}

// SeedSettings preloads a roaming-settings document for a user.
type SeedSettings struct {
	Theme    string `yaml:"theme"`
	Color    string `yaml:"color"`
	Language string `yaml:"lang"`
}

// DefaultSeed returns the embedded dataset: one tenant with two verified
// domains and enough users to exercise multi-page listings.
func DefaultSeed() Seed {
	seed, err := LoadSeed(bytes.NewReader(defaultSeedYAML))
	if err != nil {
		panic(fmt.Sprintf("graphtest: embedded seed is invalid: %v", err))
	}
	return seed
}

// LoadSeed decodes a seed document. Unknown fields are rejected so typos in
// hand-written fixtures fail loudly.
func LoadSeed(r io.Reader) (Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// LoadSeedFile reads a seed document from disk.
func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return LoadSeed(f)
}
