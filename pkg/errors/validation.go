package errors

import (
	"strings"
	"unicode"
)

// Limits for outline item fields.
const (
	MaxLabelLength = 512
	MaxHrefLength  = 2048
)

// ValidateLabel validates the label of an outline item. Labels are shown
// verbatim on every rendering surface, so control characters are rejected.
// Empty labels are allowed: a nested list entry without text still becomes
// a node.
func ValidateLabel(label string) error {
	if len(label) > MaxLabelLength {
		return New(ErrCodeInvalidOutline, "label too long (max %d characters)", MaxLabelLength)
	}
	for _, r := range label {
		if unicode.IsControl(r) && r != '\t' {
			return New(ErrCodeInvalidOutline, "label contains invalid control characters")
		}
	}
	return nil
}

// ValidateHref validates the link target of an outline item.
// Empty hrefs are allowed; javascript: URLs are not, since they end up
// in rendered SVG anchors.
func ValidateHref(href string) error {
	if href == "" {
		return nil
	}
	if len(href) > MaxHrefLength {
		return New(ErrCodeInvalidOutline, "href too long (max %d characters)", MaxHrefLength)
	}
	if strings.ContainsAny(href, "\x00\n\r") {
		return New(ErrCodeInvalidOutline, "href contains invalid characters")
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "javascript:") {
		return New(ErrCodeInvalidOutline, "href must not use the javascript scheme")
	}
	return nil
}

// ValidatePath validates a user supplied output or outline path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
