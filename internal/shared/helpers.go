// Package shared provides small helpers used by several adapters.
package shared

import (
	"fmt"
	"strings"
)

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

// TrimRepoSuffix drops a trailing ".git" from a repository name.
func TrimRepoSuffix(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), ".git")
}
