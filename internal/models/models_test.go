package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Satisfies(t *testing.T) {
	assert.True(t, RoleAdmin.Satisfies(RoleStandard))
	assert.True(t, RoleAdmin.Satisfies(RoleAdmin))
	assert.True(t, RoleStandard.Satisfies(RoleStandard))
	assert.False(t, RoleStandard.Satisfies(RoleAdmin))
	assert.False(t, Role("guest").Satisfies(RoleStandard))
	assert.False(t, RoleAdmin.Satisfies(Role("root")))
	assert.False(t, Role("").Valid())
}

func TestUser_PasswordHashNeverSerialised(t *testing.T) {
	u := User{ID: "u-1", Username: "luke", PasswordHash: "$2a$10$hash", Role: RoleStandard}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "password")
}

func TestUpdateMovieRequest_Apply(t *testing.T) {
	title := "The Empire Strikes Back"
	episode := 5
	patch := UpdateMovieRequest{Title: &title, EpisodeID: &episode}

	m := Movie{ID: "m-1", Title: "old", EpisodeID: 1, Director: "Irvin Kershner"}
	patch.Apply(&m)

	assert.Equal(t, "The Empire Strikes Back", m.Title)
	assert.Equal(t, 5, m.EpisodeID)
	assert.Equal(t, "Irvin Kershner", m.Director)
	assert.False(t, patch.IsEmpty())
	assert.True(t, UpdateMovieRequest{}.IsEmpty())
}

func TestTokenPair_JSONNames(t *testing.T) {
	raw, err := json.Marshal(TokenPair{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"accessToken":"a","refreshToken":"r"}`, string(raw))
}
