package auth

import (
	"fmt"
	"strconv"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/settings"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/vault"
)

// Credentials is the saved login material. The password is plaintext in
// memory and vault ciphertext at rest.
type Credentials struct {
	Username string
	Password string
	Remember bool
}

// SaveCredentials persists credentials to the settings store. The password is
// only written when remember is set; otherwise any saved password is cleared.
func SaveCredentials(store *settings.Store, creds Credentials) error {
	if err := store.Set(settings.KeyUsername, creds.Username); err != nil {
		return err
	}
	if err := store.Set(settings.KeyRemember, strconv.FormatBool(creds.Remember)); err != nil {
		return err
	}

	if !creds.Remember {
		return store.Delete(settings.KeyPassword)
	}

	encrypted, err := vault.Encrypt(creds.Password)
	if err != nil {
		return fmt.Errorf("encrypt saved password: %w", err)
	}
	return store.Set(settings.KeyPassword, encrypted)
}

// LoadCredentials reads saved credentials. Absent keys yield zero values; a
// password that fails to decrypt is treated as unsaved rather than an error,
// so a corrupted settings value only costs a re-login.
func LoadCredentials(store *settings.Store) (Credentials, error) {
	var creds Credentials

	username, err := store.Get(settings.KeyUsername)
	if err != nil {
		return creds, err
	}
	creds.Username = username

	remember, err := store.Get(settings.KeyRemember)
	if err != nil {
		return creds, err
	}
	creds.Remember, _ = strconv.ParseBool(remember)

	encrypted, err := store.Get(settings.KeyPassword)
	if err != nil {
		return creds, err
	}
	password, err := vault.Decrypt(encrypted)
	if err != nil {
		logging.Warn("saved password could not be decrypted, ignoring")
		return creds, nil
	}
	creds.Password = password
	return creds, nil
}

// ClearCredentials removes saved login material on logout. The username and
// password survive when remember is set, matching the login form's behavior.
func ClearCredentials(store *settings.Store) error {
	remember, err := store.Get(settings.KeyRemember)
	if err != nil {
		return err
	}
	if ok, _ := strconv.ParseBool(remember); ok {
		return nil
	}
	if err := store.Delete(settings.KeyUsername); err != nil {
		return err
	}
	return store.Delete(settings.KeyPassword)
}
