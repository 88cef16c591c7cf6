package utils

import "github.com/microcosm-cc/bluemonday"

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from config or backend supplied display
// strings (task names, random names, notice text) before they reach a client.
func SanitizeText(input string) string {
	return textPolicy.Sanitize(input)
}
