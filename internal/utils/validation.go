package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// Station ids are numeric for most providers, some use letters and separators
	validStopIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

	// Detect potentially dangerous characters - more focused on injection patterns
	dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/|;.*--`)

	// Detect HTML/script tags
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidateStopID validates ids of stops and stations
func ValidateStopID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}
	if !validStopIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}
	return nil
}

// ValidateJourneyID accepts the opaque refresh tokens providers hand out,
// which contain all kinds of punctuation, but no control characters.
func ValidateJourneyID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > 4096 {
		return errors.New("id too long (max 4096 characters)")
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return errors.New("id contains invalid characters")
	}
	return nil
}

// ValidateQuery validates search query strings
func ValidateQuery(query string) error {
	if query == "" {
		return nil
	}
	if len(query) > 200 {
		return errors.New("query too long (max 200 characters)")
	}
	if dangerousPattern.MatchString(query) {
		return errors.New("query contains invalid characters")
	}
	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// SanitizeInput removes HTML tags and surrounding whitespace
func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, ""))
}

// ValidateAndSanitizeQuery validates and sanitizes a search query
func ValidateAndSanitizeQuery(query string) (string, error) {
	if err := ValidateQuery(query); err != nil {
		return "", err
	}
	return SanitizeInput(query), nil
}
