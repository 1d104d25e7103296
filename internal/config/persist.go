// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
)

// UpdateLogSettings rewrites the log settings in the config file in place and
// keeps the in-memory config in sync.
func (c *AppConfig) UpdateLogSettings(logLevel, logPath string, maxSize, maxBackups int) error {
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	updated := updateLogSettingsInTOML(string(data), logLevel, logPath, maxSize, maxBackups)

	if err := os.WriteFile(c.configPath, []byte(updated), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.mu.Lock()
	c.Config.LogLevel = logLevel
	c.Config.LogPath = logPath
	c.Config.LogMaxSize = maxSize
	c.Config.LogMaxBackups = maxBackups
	c.mu.Unlock()

	setLogLevel(logLevel)
	return nil
}

// updateLogSettingsInTOML replaces the logLevel, logPath, logMaxSize and
// logMaxBackups keys inside content, uncommenting them when they only exist
// commented out. Keys that appear nowhere are appended at the end of the file,
// never in the middle of a later section.
func updateLogSettingsInTOML(content, logLevel, logPath string, maxSize, maxBackups int) string {
	lines := strings.Split(content, "\n")

	replacements := []struct {
		key   string
		value string
	}{
		{"logLevel", fmt.Sprintf("logLevel = %q", logLevel)},
		{"logPath", fmt.Sprintf("logPath = %q", logPath)},
		{"logMaxSize", fmt.Sprintf("logMaxSize = %d", maxSize)},
		{"logMaxBackups", fmt.Sprintf("logMaxBackups = %d", maxBackups)},
	}

	var missing []string
	for _, repl := range replacements {
		if idx := findTOMLKey(lines, repl.key); idx >= 0 {
			lines[idx] = repl.value
		} else {
			missing = append(missing, repl.value)
		}
	}

	if len(missing) > 0 {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		lines = append(lines, "")
		lines = append(lines, missing...)
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// findTOMLKey returns the index of the line assigning key at the top level,
// including commented-out assignments. logMaxSize must not match logMaxSizeX,
// so the character after the key has to end the identifier.
func findTOMLKey(lines []string, key string) int {
	commented := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Stop at the first table header; these keys are top-level.
		if strings.HasPrefix(trimmed, "[") {
			break
		}

		isComment := false
		if strings.HasPrefix(trimmed, "#") {
			trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			isComment = true
		}

		if !strings.HasPrefix(trimmed, key) {
			continue
		}
		rest := trimmed[len(key):]
		if rest == "" || (rest[0] != ' ' && rest[0] != '=') {
			continue
		}
		if !strings.Contains(rest, "=") {
			continue
		}

		if isComment {
			if commented == -1 {
				commented = i
			}
			continue
		}
		return i
	}
	return commented
}
