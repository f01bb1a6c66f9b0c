package userstore

import "errors"

// User is a single credential record. The Password field always holds an
// encoded hash, never plaintext, and is excluded from JSON output.
type User struct {
	DisplayName string   `yaml:"displayname" json:"displayname"`
	Email       string   `yaml:"email" json:"email"`
	Password    string   `yaml:"password" json:"-"`
	Groups      []string `yaml:"groups" json:"groups"`
}

// document is the on-disk shape expected by the identity provider
type document struct {
	Users map[string]User `yaml:"users"`
}

var (
	// ErrStorage indicates the store file could not be read, parsed, or written
	ErrStorage = errors.New("credential store unavailable")

	// ErrStale indicates the store file changed between Load and Save
	ErrStale = errors.New("credential store changed since load")
)
