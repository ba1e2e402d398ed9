package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueLearnerAndValidate(t *testing.T) {
	m := NewManager(ManagerConfig{Secret: []byte("secret")})

	learner, token, err := m.IssueLearner()
	require.NoError(t, err)
	require.NotEmpty(t, learner)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, learner, claims.Subject)
	assert.Equal(t, RoleLearner, claims.Role)
}

func TestIssueTeacherRole(t *testing.T) {
	m := NewManager(ManagerConfig{Secret: []byte("secret")})

	token, err := m.IssueTeacher()
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, RoleTeacher, claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewManager(ManagerConfig{Secret: []byte("secret-a")})
	verifier := NewManager(ManagerConfig{Secret: []byte("secret-b")})

	_, token, err := issuer.IssueLearner()
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager(ManagerConfig{Secret: []byte("secret")})
	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewManager(ManagerConfig{Secret: []byte("secret"), TTL: -time.Minute})

	_, token, err := m.IssueLearner()
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPortalPassword(t *testing.T) {
	hash, err := HashPortalPassword("hunter2")
	require.NoError(t, err)

	assert.NoError(t, VerifyPortalPassword(hash, "hunter2"))
	assert.ErrorIs(t, VerifyPortalPassword(hash, "wrong"), ErrBadCredentials)
	assert.ErrorIs(t, VerifyPortalPassword("", "hunter2"), ErrBadCredentials)
}
