package triage

import (
	"errors"
	"fmt"
	"regexp"
)

// The separator is any character and octets are not range checked. Titles in
// the wild use both dots and look-alike separators, so the loose form stays.
var (
	ipPattern     = regexp.MustCompile(`\d{1,3}.\d{1,3}.\d{1,3}.\d{1,3}`)
	ipExactFormat = regexp.MustCompile(`^\d{1,3}.\d{1,3}.\d{1,3}.\d{1,3}$`)
)

// WildcardFilter matches every ticket in the primary queues.
const WildcardFilter = "%"

var ErrInvalidIP = errors.New("invalid IP address")

// ExtractIP returns the first dotted-quad shaped substring of title.
func ExtractIP(title string) (string, bool) {
	ip := ipPattern.FindString(title)
	return ip, ip != ""
}

// ValidateFilter checks the top-level search filter: the wildcard or a single
// IP address in the same loose form ExtractIP accepts.
func ValidateFilter(filter string) error {
	if filter == WildcardFilter || ipExactFormat.MatchString(filter) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidIP, filter)
}
