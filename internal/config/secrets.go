package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSecretsPath = "/var/run/secrets/biocat"
	apiKeyFile         = "api_key"
)

// tryLoadAPIKeySecret attempts to read the API key from a mounted secret
// file. A missing secrets directory or file is not an error; it just means
// the key must come from the config file or environment instead.
func tryLoadAPIKeySecret() (string, error) {
	secretsPath := os.Getenv("BIOCAT_SECRETS_PATH")
	if secretsPath == "" {
		secretsPath = defaultSecretsPath
	}

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return "", nil
	}

	data, err := os.ReadFile(filepath.Join(secretsPath, apiKeyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}
