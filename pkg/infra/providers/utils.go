package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaInstruction renders a schema as a prompt section for providers that
// have no native structured output mode.
func SchemaInstruction(schema Schema) (string, error) {
	b, err := json.Marshal(schema.Definition)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema %s: %w", schema.Name, err)
	}

	var sb strings.Builder
	sb.WriteString("[Output format]\n")
	sb.WriteString("Respond with a single JSON object and nothing else: no prose, no markdown.\n")
	sb.WriteString("The object must validate against this JSON schema:\n")
	sb.Write(b)
	sb.WriteByte('\n')
	return sb.String(), nil
}

func (c *Config) Validate() error {
	if c.Credentials.ApiKey == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	return nil
}
