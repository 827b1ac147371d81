package config

import (
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// GenerateConfigContent renders a starter jsh.toml: the default values
// marshalled to TOML with every assignment commented out, so the file
// documents the knobs without changing behavior.
func GenerateConfigContent() (string, error) {
	defaults := Config{
		BackupDir:  ".jsh_backup",
		Strict:     false,
		PrivateDir: "private",
	}

	raw, err := toml.Marshal(defaults)
	if err != nil {
		return "", err
	}

	return commentOutConfigValues(string(raw)), nil
}

// commentOutConfigValues comments out all non-comment, non-blank lines
// that contain configuration values (assignments)
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}
