package api

import (
	"crypto/sha512"
	"fmt"
	"time"
)

const (
	salt      = "Otus"
	adminSalt = "42"
)

const adminTokenLayout = "2006010215"

// CheckAuth compares the supplied token against the expected sha512 hex
// digest. The admin digest is derived from the current hour in local time, so
// an admin token only holds within a one-hour rolling window. Non-admin
// digests are account+login+salt with a missing account as the empty string.
func CheckAuth(login, account, token string, isAdmin bool, now time.Time) bool {
	var expected string
	if isAdmin {
		expected = sha512hex(now.Format(adminTokenLayout) + adminSalt)
	} else {
		expected = sha512hex(account + login + salt)
	}
	return expected == token
}

func sha512hex(s string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(s)))
}
