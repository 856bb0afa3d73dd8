package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronosentry/chronosentry/pkg/models"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, `[
	  {
	    "id": "weekend-rule",
	    "name": "Weekend Work",
	    "description": "Weekend entries need prior approval",
	    "condition": {"anomalyType": "suspicious-pattern"},
	    "severity": "medium",
	    "action": "flag"
	  }
	]`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "weekend-rule", rules[0].ID)
	assert.Equal(t, models.AnomalySuspiciousPattern, rules[0].Condition.AnomalyType)
	assert.Equal(t, models.SeverityMedium, rules[0].Severity)
	assert.Equal(t, models.ActionFlag, rules[0].Action)
}

func TestLoadRules_RejectsUnknownSeverity(t *testing.T) {
	path := writeRules(t, `[
	  {
	    "id": "bad",
	    "name": "Bad",
	    "condition": {"anomalyType": "overtime"},
	    "severity": "catastrophic",
	    "action": "flag"
	  }
	]`)

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rules file")
}

func TestLoadRules_RejectsEmptyTable(t *testing.T) {
	path := writeRules(t, `[]`)

	_, err := LoadRules(path)
	require.Error(t, err)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rules file")
}
