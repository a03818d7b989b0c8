package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// profilesFile represents the structure of the profiles configuration file.
type profilesFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Profile is one named vendor environment declared in the profiles file.
type Profile struct {
	ID             string `json:"id" yaml:"id"`
	CustomerID     string `json:"customer_id" yaml:"customer_id"`
	APIKey         string `json:"api_key" yaml:"api_key"`
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	Proxy          string `json:"proxy" yaml:"proxy"`
	TimeoutSeconds int64  `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ProfileRegistry holds the profiles loaded from a config file, keyed by id.
type ProfileRegistry struct {
	profiles []Profile
	idx      map[string]Profile
}

// LoadProfiles loads the profile registry from a YAML/JSON file.
func LoadProfiles(path string) (*ProfileRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("profiles file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	file, err := parseProfiles(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	reg := &ProfileRegistry{
		profiles: make([]Profile, len(file.Profiles)),
		idx:      make(map[string]Profile, len(file.Profiles)),
	}

	for i := range file.Profiles {
		p := sanitizeProfile(file.Profiles[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		reg.profiles[i] = p
		reg.idx[p.ID] = p
	}

	return reg, nil
}

// Lookup returns the profile with the given id.
func (r *ProfileRegistry) Lookup(id string) (Profile, bool) {
	p, ok := r.idx[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// IDs lists the profile ids in file order.
func (r *ProfileRegistry) IDs() []string {
	ids := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		ids[i] = p.ID
	}
	return ids
}

// parseProfiles attempts to decode the profiles file content.
func parseProfiles(data []byte, ext string) (profilesFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file profilesFile
		if err := d.fn(data, &file); err == nil {
			return file, nil
		}
	}

	return profilesFile{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

// sanitizeProfile trims and normalizes the profile fields.
func sanitizeProfile(p Profile) Profile {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	p.CustomerID = strings.TrimSpace(p.CustomerID)
	p.APIKey = strings.TrimSpace(p.APIKey)
	p.Endpoint = strings.TrimRight(strings.TrimSpace(p.Endpoint), "/")
	p.Proxy = strings.TrimSpace(p.Proxy)
	return p
}

// validateProfile checks the required profile fields.
func validateProfile(p Profile) error {
	if p.ID == "" {
		return errors.New("profile id is empty")
	}
	if p.CustomerID == "" {
		return fmt.Errorf("profile %q: customer_id is empty", p.ID)
	}
	if p.APIKey == "" {
		return fmt.Errorf("profile %q: api_key is empty", p.ID)
	}
	if p.TimeoutSeconds < 0 {
		return fmt.Errorf("profile %q: timeout_seconds must not be negative", p.ID)
	}
	return nil
}
