package models

import "regexp"

var (
	shareTokenRE = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)
	profileIDRE  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// IsValidShareToken reports whether token has the shape of a share link
// secret.
func IsValidShareToken(token string) bool {
	return shareTokenRE.MatchString(token)
}

// IsValidProfileID reports whether id is an acceptable profile identifier.
func IsValidProfileID(id string) bool {
	return profileIDRE.MatchString(id)
}
