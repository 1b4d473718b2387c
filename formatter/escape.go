package formatter

import "strings"

var escaper = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// escapeString escapes a string for use between double quotes.
func escapeString(s string) string {
	if !strings.ContainsAny(s, "\"\\\n\t\r") {
		return s
	}
	return escaper.Replace(s)
}

// quote returns s escaped and wrapped in double quotes.
func quote(s string) string {
	return `"` + escapeString(s) + `"`
}
