package git

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

func TestAuthMethod(t *testing.T) {
	m, err := authMethod(nil)
	require.NoError(t, err)
	require.Nil(t, m)

	m, err = authMethod(&config.AuthConfig{Type: config.AuthTypeNone})
	require.NoError(t, err)
	require.Nil(t, m)

	m, err = authMethod(&config.AuthConfig{Type: config.AuthTypeToken, Token: "tok"})
	require.NoError(t, err)
	require.Equal(t, &http.BasicAuth{Username: "token", Password: "tok"}, m)

	m, err = authMethod(&config.AuthConfig{Type: config.AuthTypeBasic, Username: "u", Password: "p"})
	require.NoError(t, err)
	require.Equal(t, &http.BasicAuth{Username: "u", Password: "p"}, m)

	for _, bad := range []*config.AuthConfig{
		{Type: config.AuthTypeToken},
		{Type: config.AuthTypeBasic, Username: "u"},
		{Type: config.AuthTypeSSH, KeyPath: "/nonexistent/key"},
		{Type: "kerberos"},
	} {
		_, err := authMethod(bad)
		require.Error(t, err, "type %s", bad.Type)
		require.True(t, errors.HasCategory(err, errors.CategoryAuth))
	}
}
