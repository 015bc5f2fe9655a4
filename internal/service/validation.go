package service

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRegex is the accepted address shape.
var emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

const maxTitleLength = 200

// DefaultAllowedDomains is used when no allow-list is configured.
var DefaultAllowedDomains = []string{"ridecell.com", "gmail.com"}

// emailValidator checks addresses against the pattern and a domain allow-list.
type emailValidator struct {
	domains map[string]struct{}
}

func newEmailValidator(domains []string) emailValidator {
	if len(domains) == 0 {
		domains = DefaultAllowedDomains
	}
	v := emailValidator{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			v.domains[d] = struct{}{}
		}
	}
	return v
}

func (v emailValidator) validate(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}
	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	if _, ok := v.domains[domain]; !ok {
		return fmt.Errorf("%w: %s is not on an allowed domain", ErrInvalidEmail, email)
	}
	return nil
}

func (v emailValidator) validateAll(emails []string) error {
	if len(emails) == 0 {
		return missingField("attendees")
	}
	for _, e := range emails {
		if err := v.validate(e); err != nil {
			return err
		}
	}
	return nil
}

// validateTitle rejects titles that cannot be addressed as a path segment.
func validateTitle(title string) error {
	if title == "" {
		return missingField("title")
	}
	if strings.TrimSpace(title) == "" || len(title) > maxTitleLength || strings.ContainsAny(title, "/\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}
