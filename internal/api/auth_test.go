package api

import (
	"crypto/sha512"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckAuth_User(t *testing.T) {
	now := time.Date(2026, 8, 28, 17, 30, 0, 0, time.UTC)
	token := fmt.Sprintf("%x", sha512.Sum512([]byte("h&fh&fOtus")))

	assert.True(t, CheckAuth("h&f", "h&f", token, false, now))

	// any single-character mutation is rejected
	for i := 0; i < len(token); i += 13 {
		mutated := []byte(token)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		assert.False(t, CheckAuth("h&f", "h&f", string(mutated), false, now), "mutation at %d", i)
	}

	// uppercased hex is not accepted
	assert.False(t, CheckAuth("h&f", "h&f", fmt.Sprintf("%X", sha512.Sum512([]byte("h&fh&fOtus"))), false, now))
}

func TestCheckAuth_MissingAccount(t *testing.T) {
	now := time.Now()
	token := fmt.Sprintf("%x", sha512.Sum512([]byte("h&fOtus")))

	assert.True(t, CheckAuth("h&f", "", token, false, now))
}

func TestAdminTokenLayout(t *testing.T) {
	// YYYYMMDDHH: the hour of day must enter the digest
	at := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026082814", at.Format(adminTokenLayout))
	assert.NotEqual(t, at.Format(adminTokenLayout), at.Add(time.Hour).Format(adminTokenLayout))
}

func TestCheckAuth_AdminWindow(t *testing.T) {
	hour := time.Date(2026, 8, 28, 17, 0, 0, 0, time.Local)
	token := fmt.Sprintf("%x", sha512.Sum512([]byte(hour.Format(adminTokenLayout)+adminSalt)))

	assert.True(t, CheckAuth(AdminLogin, "", token, true, hour))
	assert.True(t, CheckAuth(AdminLogin, "", token, true, hour.Add(59*time.Minute)))

	// the previous hour's token is dead in the next hour
	assert.False(t, CheckAuth(AdminLogin, "", token, true, hour.Add(time.Hour)))
	assert.False(t, CheckAuth(AdminLogin, "", token, true, hour.Add(-time.Minute)))
}

func TestMethodRequest_IsAdmin(t *testing.T) {
	assert.True(t, MethodRequest{Login: "admin"}.IsAdmin())
	assert.False(t, MethodRequest{Login: "h&f"}.IsAdmin())
	assert.False(t, MethodRequest{Login: "Admin"}.IsAdmin())
}
