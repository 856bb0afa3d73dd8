package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/chronosentry/chronosentry/pkg/models"
)

// rulesSchema validates externally supplied rule tables before they are
// decoded. Closed enums here mirror the model's validate tags.
const rulesSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["id", "name", "condition", "severity", "action"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "condition": {
        "type": "object",
        "required": ["anomalyType"],
        "properties": {
          "anomalyType": {
            "type": "string",
            "enum": ["missing-entry", "overtime", "duplicate", "policy-violation", "suspicious-pattern"]
          },
          "descriptionContains": {"type": "string"}
        }
      },
      "severity": {"type": "string", "enum": ["low", "medium", "high"]},
      "action": {"type": "string", "enum": ["flag", "auto-correct", "reject"]}
    }
  }
}`

// LoadRules reads a JSON rule table from disk, validating it against the
// schema first so a malformed table fails loudly at startup instead of
// misclassifying anomalies at run time.
func LoadRules(path string) ([]models.PolicyRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(rulesSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate rules file: %w", err)
	}

	if !result.Valid() {
		var descs []string
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}

		return nil, fmt.Errorf("invalid rules file %s: %s", path, strings.Join(descs, "; "))
	}

	var rules []models.PolicyRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rules file: %w", err)
	}

	return rules, nil
}
