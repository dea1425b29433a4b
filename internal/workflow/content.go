package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"dossier/internal/catalog"
)

// parseContent decodes submitted content and requires a JSON object at the
// top level. An empty submission is treated as an empty object.
func parseContent(stepID, content string) (map[string]any, error) {
	if strings.TrimSpace(content) == "" {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, &ValidationError{StepID: stepID, Reason: fmt.Sprintf("content is not a JSON object: %v", err)}
	}
	return fields, nil
}

// validateContent enforces the step's content rule on a full submission:
// required fields must be present and non-empty, and attachment entries must
// respect the size and type limits.
func validateContent(step catalog.StepDefinition, content string) error {
	fields, err := parseContent(step.ID, content)
	if err != nil {
		return err
	}
	rule := step.Content
	if rule == nil {
		return nil
	}
	for _, name := range rule.RequiredFields {
		value, ok := fields[name]
		if !ok || emptyValue(value) {
			return &ValidationError{StepID: step.ID, Reason: fmt.Sprintf("required field %q is missing or empty", name)}
		}
	}
	if rule.Attachments != nil {
		if err := validateAttachments(step.ID, fields, rule.Attachments); err != nil {
			return err
		}
	}
	return nil
}

// validateAttachments checks the conventional "attachments" array: each entry
// is an object carrying name, content_type, and size_bytes.
func validateAttachments(stepID string, fields map[string]any, rule *catalog.AttachmentRule) error {
	raw, ok := fields["attachments"]
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return &ValidationError{StepID: stepID, Reason: "attachments must be an array"}
	}
	for i, entry := range entries {
		attachment, ok := entry.(map[string]any)
		if !ok {
			return &ValidationError{StepID: stepID, Reason: fmt.Sprintf("attachment %d is not an object", i)}
		}
		if rule.MaxBytes > 0 {
			size, _ := attachment["size_bytes"].(float64)
			if int64(size) > rule.MaxBytes {
				return &ValidationError{StepID: stepID, Reason: fmt.Sprintf("attachment %d exceeds %d bytes", i, rule.MaxBytes)}
			}
		}
		if len(rule.AllowedTypes) > 0 {
			contentType, _ := attachment["content_type"].(string)
			if !allowedType(rule.AllowedTypes, contentType) {
				return &ValidationError{StepID: stepID, Reason: fmt.Sprintf("attachment %d has disallowed type %q", i, contentType)}
			}
		}
	}
	return nil
}

func allowedType(allowed []string, contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, candidate := range allowed {
		if contentType == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// emptyValue reports whether a decoded JSON value counts as absent for
// required-field purposes.
func emptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
