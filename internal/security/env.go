package security

import (
	"slices"
	"strings"
)

// secretEnvSuffixes mark variables that hold a credential whatever their
// prefix: OPENAI_API_KEY, FIGMA_ACCESS_TOKEN, TOOLGATE_PASSWORD and so on.
var secretEnvSuffixes = []string{
	"_API_KEY",
	"_ACCESS_KEY",
	"_SECRET_ACCESS_KEY",
	"_SECRET",
	"_TOKEN",
	"_PASSWORD",
	"_CREDENTIALS",
}

// secretEnvNames are dropped by exact name.
var secretEnvNames = []string{
	"DATABASE_URL",
	"GOOGLE_API_KEY",
	"TOOLGATE_USER",
}

// IsSecretEnv reports whether an approved shell command must not inherit
// the variable called name.
func IsSecretEnv(name string) bool {
	upper := strings.ToUpper(name)
	if slices.Contains(secretEnvNames, upper) {
		return true
	}
	for _, suffix := range secretEnvSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

// SanitizedEnv filters environ (KEY=VALUE entries) for a shell child.
// Secret variables are dropped, and so is any variable whose value embeds
// a credential held by store. A nil store only applies the name rules.
func SanitizedEnv(environ []string, store *CredentialStore) []string {
	var secrets []string
	if store != nil {
		for _, v := range store.Values() {
			if len(v) >= minLiteralLen {
				secrets = append(secrets, v)
			}
		}
	}

	out := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || IsSecretEnv(name) {
			continue
		}
		if slices.ContainsFunc(secrets, func(s string) bool { return strings.Contains(value, s) }) {
			continue
		}
		out = append(out, entry)
	}
	return out
}
