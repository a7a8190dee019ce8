package git

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// authMethod returns the go-git AuthMethod for cfg; nil means anonymous.
func authMethod(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}
	switch cfg.Type {
	case config.AuthTypeToken:
		if cfg.Token == "" {
			return nil, authConfigError(cfg.Type, "token authentication requires a token")
		}
		user := cfg.Username
		if user == "" {
			user = "token"
		}
		return &http.BasicAuth{Username: user, Password: cfg.Token}, nil
	case config.AuthTypeBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, authConfigError(cfg.Type, "basic authentication requires username and password")
		}
		return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
	case config.AuthTypeSSH:
		keyPath := cfg.KeyPath
		if keyPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, authConfigError(cfg.Type, "cannot locate default ssh key")
			}
			keyPath = home + "/.ssh/id_rsa"
		}
		user := cfg.Username
		if user == "" {
			user = "git"
		}
		keys, err := ssh.NewPublicKeysFromFile(user, keyPath, cfg.Password)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryAuth, "failed to load ssh key").
				WithContext("key_path", keyPath).
				UserAction().
				Build()
		}
		return keys, nil
	default:
		return nil, authConfigError(cfg.Type, fmt.Sprintf("unsupported authentication type %q", cfg.Type))
	}
}

func authConfigError(t config.AuthType, msg string) error {
	return errors.NewError(errors.CategoryAuth, msg).
		WithContext("type", string(t)).
		UserAction().
		Build()
}
