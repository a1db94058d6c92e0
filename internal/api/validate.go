package api

import (
	"fmt"
	"regexp"
	"strings"

	gerrors "github.com/githubtune/githubtune/internal/errors"
)

// GitHub usernames: 1–39 chars, alphanumeric or hyphen, no hyphen at either
// end, no consecutive hyphens. Validated here so the scrape core can assume
// a well-formed name.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)

func validateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("%w: username is required", gerrors.ErrInvalidUsername)
	}
	if len(name) > 39 || !usernameRe.MatchString(name) || strings.Contains(name, "--") {
		return fmt.Errorf("%w: %q", gerrors.ErrInvalidUsername, name)
	}
	return nil
}
