// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateLogSettingsInTOML_ReplacesExistingKeys(t *testing.T) {
	content := `host = "localhost"
logLevel = "INFO"
logPath = "old.log"
logMaxSize = 50
logMaxBackups = 3
`

	got := updateLogSettingsInTOML(content, "DEBUG", "new.log", 100, 5)

	assert.Contains(t, got, `logLevel = "DEBUG"`)
	assert.Contains(t, got, `logPath = "new.log"`)
	assert.Contains(t, got, "logMaxSize = 100")
	assert.Contains(t, got, "logMaxBackups = 5")
	assert.NotContains(t, got, "old.log")
	assert.Contains(t, got, `host = "localhost"`)
}

func TestUpdateLogSettingsInTOML_UncommentsCommentedKeys(t *testing.T) {
	content := `host = "localhost"
#logLevel = "INFO"
#logPath = "log/clientdesk.log"
#logMaxSize = 50
#logMaxBackups = 3
`

	got := updateLogSettingsInTOML(content, "WARN", "/var/log/clientdesk.log", 25, 2)

	assert.Contains(t, got, `logLevel = "WARN"`)
	assert.Contains(t, got, `logPath = "/var/log/clientdesk.log"`)
	assert.Contains(t, got, "logMaxSize = 25")
	assert.Contains(t, got, "logMaxBackups = 2")
	assert.NotContains(t, got, `#logLevel`)
	assert.NotContains(t, got, `#logPath`)
}

func TestUpdateLogSettingsInTOML_AppendsMissingKeys(t *testing.T) {
	content := `host = "localhost"
port = 7171
`

	got := updateLogSettingsInTOML(content, "INFO", "app.log", 50, 3)

	assert.Contains(t, got, `logLevel = "INFO"`)
	assert.Contains(t, got, `logPath = "app.log"`)
	assert.Contains(t, got, "logMaxSize = 50")
	assert.Contains(t, got, "logMaxBackups = 3")
}

func TestUpdateLogSettingsInTOML_DoesNotTouchLaterSections(t *testing.T) {
	content := `logLevel = "INFO"

[httpTimeouts]
readTimeout = 15
`

	got := updateLogSettingsInTOML(content, "ERROR", "", 40, 1)

	assert.Contains(t, got, `logLevel = "ERROR"`)
	assert.Contains(t, got, "[httpTimeouts]")
	assert.Contains(t, got, "readTimeout = 15")

	// Appended keys must land after the section rather than inside it being
	// rewritten, so the section content stays intact.
	sectionIdx := strings.Index(got, "[httpTimeouts]")
	assert.Greater(t, sectionIdx, strings.Index(got, `logLevel = "ERROR"`))
}

func TestFindTOMLKey_ExactMatchOnly(t *testing.T) {
	lines := []string{
		`logMaxSizeExtra = 10`,
		`logMaxSize = 50`,
	}

	assert.Equal(t, 1, findTOMLKey(lines, "logMaxSize"))
}

func TestFindTOMLKey_StopsAtSection(t *testing.T) {
	lines := []string{
		`host = "localhost"`,
		`[section]`,
		`logLevel = "INFO"`,
	}

	assert.Equal(t, -1, findTOMLKey(lines, "logLevel"))
}
