package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/api"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/metrics"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/vault"
)

// ErrNoToken is returned when the backend answers a login with a success
// envelope that carries no token. It is a user-facing login failure, not a
// gateway fault.
var ErrNoToken = errors.New("login failed: no token in response")

// loginResult is the Result block of a login response.
type loginResult struct {
	Token         string    `json:"Token"`
	LoginUserInfo *UserInfo `json:"LoginUserInfo"`
}

// Login authenticates against the backend and installs the session into s.
// The password is encrypted with the vault cipher before it goes on the wire,
// matching what the web frontend sends.
func Login(ctx context.Context, s *State, gw *api.Gateway, loginURL, account, password string) (*UserInfo, error) {
	encrypted, err := vault.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	raw, err := gw.Post(ctx, loginURL, map[string]string{
		"LoginAccount": account,
		"LoginPwd":     encrypted,
	})
	if err != nil {
		metrics.RecordAuthAttempt(false)
		return nil, err
	}

	var result loginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		metrics.RecordAuthAttempt(false)
		return nil, &api.ParsingError{Body: string(raw), Err: err}
	}

	if result.Token == "" {
		metrics.RecordAuthAttempt(false)
		return nil, ErrNoToken
	}

	user := result.LoginUserInfo
	if user == nil {
		user = &UserInfo{UserType: 5, UserName: account}
	}
	s.SetLogin(result.Token, user)
	metrics.RecordAuthAttempt(true)

	log := logging.L().With(zap.String("account", account))
	if exp, ok := TokenExpiry(result.Token); ok {
		log.Info("logged in", zap.Bool("admin", s.IsAdmin()), zap.Time("token_expires", exp))
	} else {
		log.Info("logged in", zap.Bool("admin", s.IsAdmin()))
	}

	return user, nil
}
