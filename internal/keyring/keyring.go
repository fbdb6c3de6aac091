package keyring

import (
	"os"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/halyard-dev/vessel/internal/consts"
)

const tokenUser = "session_token"

// GetToken returns the session token from the VESSEL_TOKEN env var,
// falling back to the system keyring.
func GetToken() (string, error) {
	if v := os.Getenv("VESSEL_TOKEN"); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, tokenUser)
}

// SetToken stores the session token in the system keyring.
func SetToken(token string) error {
	return gokeyring.Set(consts.Name, tokenUser, token)
}

// DeleteToken removes the session token from the system keyring.
func DeleteToken() error {
	return gokeyring.Delete(consts.Name, tokenUser)
}

// GetServer returns the server URL from the VESSEL_SERVER env var,
// falling back to the stored default server.
func GetServer() (string, error) {
	if v := os.Getenv("VESSEL_SERVER"); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, "server_url")
}

// SetServer stores the default server URL in the system keyring.
func SetServer(url string) error {
	return gokeyring.Set(consts.Name, "server_url", url)
}
