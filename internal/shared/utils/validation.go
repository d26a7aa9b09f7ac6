// Package utils holds input validation shared by the transports.
package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits for inbound requests
const (
	MaxRequestSize  = 1 * 1024 * 1024 // request body / frame size
	MaxMessageSize  = 16 * 1024       // discovery query
	MaxIDLength     = 128
	MaxCategoryLen  = 64
	MaxParamsDepth  = 16
	MaxParamsFields = 64
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern additionally allows dots for the service.tool form
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	categoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates a service ID
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateToolID validates a tool ID in service.tool form
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateCategory validates a category filter
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLen, required); err != nil {
		return err
	}

	if category != "" && !categoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateMessage validates a free-text discovery query
func ValidateMessage(message string) error {
	if err := ValidateString(message, "message", 1, MaxMessageSize, true); err != nil {
		return err
	}

	whitespace := 0
	for _, r := range message {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			whitespace++
		}
	}
	if whitespace > len(message)/2 {
		return fmt.Errorf("message contains excessive whitespace")
	}

	return nil
}

// ValidateParams bounds the shape of tool call arguments
func ValidateParams(params map[string]any) error {
	if len(params) > MaxParamsFields {
		return fmt.Errorf("too many parameters (maximum %d)", MaxParamsFields)
	}
	return checkDepth(params, 0, MaxParamsDepth)
}

func checkDepth(data any, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("params nesting depth %d exceeds maximum %d", depth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}
