package keyring

import (
	"encoding/json"
	"os"
	"path/filepath"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/halyard-dev/vessel/internal/consts"
)

// Server represents a stored server entry in the registry.
type Server struct {
	URL      string `json:"url"`
	Name     string `json:"name"`      // server display name (usually the host)
	TokenKey string `json:"token_key"` // keyring key for the session token
}

const serversFile = "servers.json"

// serversPath returns the path to the server registry file.
func serversPath() string {
	return filepath.Join(consts.CacheDir, serversFile)
}

// ListServers returns all stored servers.
func ListServers() ([]Server, error) {
	data, err := os.ReadFile(serversPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var servers []Server
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// saveServers writes the server list to disk.
func saveServers(servers []Server) error {
	data, err := json.MarshalIndent(servers, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(serversPath(), data, 0o600)
}

// AddServer stores a server's session token and adds it to the registry.
// If a server with the same URL already exists, it is updated.
func AddServer(url, name, token string) error {
	servers, err := ListServers()
	if err != nil {
		servers = nil
	}

	tokenKey := "token_" + name

	if err := gokeyring.Set(consts.Name, tokenKey, token); err != nil {
		return err
	}

	found := false
	for i, s := range servers {
		if s.URL == url {
			servers[i].Name = name
			servers[i].TokenKey = tokenKey
			found = true
			break
		}
	}
	if !found {
		servers = append(servers, Server{
			URL:      url,
			Name:     name,
			TokenKey: tokenKey,
		})
	}

	return saveServers(servers)
}

// RemoveServer removes a server from the registry and deletes its token.
func RemoveServer(url string) error {
	servers, err := ListServers()
	if err != nil {
		return err
	}

	var updated []Server
	for _, s := range servers {
		if s.URL == url {
			_ = gokeyring.Delete(consts.Name, s.TokenKey)
			continue
		}
		updated = append(updated, s)
	}

	return saveServers(updated)
}

// GetServerToken retrieves the session token for a server from the keyring.
func GetServerToken(s Server) (string, error) {
	return gokeyring.Get(consts.Name, s.TokenKey)
}
