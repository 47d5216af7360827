package auth

import (
	"testing"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(&config.JWTConfig{
		AccessSecret:      "access-secret",
		AccessExpiration:  15 * time.Minute,
		RefreshSecret:     "refresh-secret",
		RefreshExpiration: 24 * time.Hour,
	})
}

func TestStrategy_SignAndVerify(t *testing.T) {
	m := newTestManager()
	payload := Payload{ID: "5d3f2c0e-1111-4a4a-9b9b-000000000001", Role: models.RoleAdmin}

	token, err := m.Access.Sign(payload)
	require.NoError(t, err)

	got, err := m.Access.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStrategy_TokensAreDistinct(t *testing.T) {
	m := newTestManager()
	payload := Payload{ID: "u-1", Role: models.RoleStandard}

	first, err := m.Access.Sign(payload)
	require.NoError(t, err)
	second, err := m.Access.Sign(payload)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStrategy_CrossStrategyRejected(t *testing.T) {
	m := newTestManager()
	payload := Payload{ID: "u-1", Role: models.RoleStandard}

	access, err := m.Access.Sign(payload)
	require.NoError(t, err)
	refresh, err := m.Refresh.Sign(payload)
	require.NoError(t, err)

	_, err = m.Refresh.Verify(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Access.Verify(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStrategy_SameSecretDifferentAudienceRejected(t *testing.T) {
	access := NewStrategy(StrategyAccess, "shared", time.Minute)
	refresh := NewStrategy(StrategyRefresh, "shared", time.Minute)

	token, err := access.Sign(Payload{ID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = refresh.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStrategy_Expired(t *testing.T) {
	s := NewStrategy(StrategyAccess, "access-secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.Sign(Payload{ID: "u-1", Role: models.RoleStandard})
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestStrategy_RejectsGarbageAndWrongSecret(t *testing.T) {
	m := newTestManager()

	_, err := m.Access.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewStrategy(StrategyAccess, "someone-else", time.Minute)
	token, err := other.Sign(Payload{ID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = m.Access.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStrategy_RejectsOtherSigningMethod(t *testing.T) {
	m := newTestManager()
	claims := Claims{
		Payload: Payload{ID: "u-1", Role: models.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Audience:  jwt.ClaimStrings{StrategyAccess},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = m.Access.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStrategy_RejectsUnknownRole(t *testing.T) {
	m := newTestManager()

	token, err := m.Access.Sign(Payload{ID: "u-1", Role: models.Role("root")})
	require.NoError(t, err)

	_, err = m.Access.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
