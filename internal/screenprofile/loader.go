package screenprofile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/winners/pkg/logger"
)

// Load reads a YAML profile and returns it with its raw bytes.
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	profile, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return profile, data, nil
}

// Parse decodes and validates a YAML profile
func Parse(data []byte) (*Profile, error) {
	var profile Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if err := Validate(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoadOrDefault falls back to Default when path does not exist.
// Any other read or validation failure is returned.
func LoadOrDefault(path string, log *logger.Logger) (*Profile, error) {
	profile, _, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Warn("Screen profile not found, using built-in defaults")
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	hash, err := Hash(profile)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"profile_id": profile.Meta.ProfileID,
		"hash":       hash[:12],
	}).Info("Screen profile loaded")

	return profile, nil
}

// Hash is the SHA-256 of the profile's canonical JSON
func Hash(profile *Profile) (string, error) {
	jsonBytes, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
