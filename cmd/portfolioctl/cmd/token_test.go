package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignToken(t *testing.T) {
	token, err := signToken("s3cret", "user-1", time.Hour, time.Now())
	require.NoError(t, err)

	decoded, err := jwtauth.VerifyToken(jwtauth.New("HS256", []byte("s3cret"), nil), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", decoded.Subject())
	assert.WithinDuration(t, time.Now().Add(time.Hour), decoded.Expiration(), 5*time.Second)
}

func TestSignTokenRejectsWrongSecret(t *testing.T) {
	token, err := signToken("s3cret", "user-1", 0, time.Now())
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(jwtauth.New("HS256", []byte("other"), nil), token)
	assert.Error(t, err)
}

func TestSignTokenRequiresSubject(t *testing.T) {
	_, err := signToken("s3cret", "", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "user-2", "--secret", "s3cret", "--ttl", "1h"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		tokenSecret = ""
	})

	require.NoError(t, Execute())

	decoded, err := jwtauth.VerifyToken(jwtauth.New("HS256", []byte("s3cret"), nil), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-2", decoded.Subject())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "refresh-prices", "snapshot", "token"} {
		assert.True(t, names[want], want)
	}
}
