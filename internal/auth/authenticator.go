package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login. It does not
// reveal whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Role is a position in the access hierarchy
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
)

// Rank orders roles: superadmin 3, admin 2, manager 1, anything else 0
func (r Role) Rank() int {
	switch r {
	case RoleSuperadmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleManager:
		return 1
	}
	return 0
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool { return r.Rank() > 0 }

// UserCredential is a stored password digest and role. The digest is
// either hex sha256(password + secret key) or a bcrypt hash.
type UserCredential struct {
	PasswordHash string `yaml:"password_hash" json:"password_hash" toml:"password_hash" edn:"password_hash"`
	Role         Role   `yaml:"role" json:"role" toml:"role" edn:"role"`
}

// Options configures an Authenticator
type Options struct {
	Resolver SecretResolver
	// Users replaces the built-in admin and manager accounts when non-empty
	Users map[string]UserCredential
}

// Authenticator verifies credentials against a superadmin identity and a
// table of regular users
type Authenticator struct {
	secretKey []byte
	superUser string
	superPass string
	users     map[string]UserCredential
	logger    *zap.Logger
}

// New creates a new authenticator
func New(opts Options, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = DefaultResolver(nil)
	}
	defaults := DefaultSecrets()

	lookup := func(name string) string {
		if v, ok := resolver.Lookup(name); ok {
			return strings.TrimSpace(v)
		}
		v, _ := defaults.Lookup(name)
		return v
	}

	a := &Authenticator{
		secretKey: []byte(lookup(SecretKey)),
		superUser: lookup(SuperadminUsername),
		superPass: lookup(SuperadminPassword),
		logger:    logger,
	}
	if string(a.secretKey) == "default_secret_key" {
		logger.Warn("SECRET_KEY not configured, using the built-in default")
	}

	if len(opts.Users) > 0 {
		a.users = make(map[string]UserCredential, len(opts.Users))
		for name, cred := range opts.Users {
			a.users[name] = cred
		}
	} else {
		a.users = map[string]UserCredential{
			"admin":   {PasswordHash: a.HashPassword("admin123"), Role: RoleAdmin},
			"manager": {PasswordHash: a.HashPassword("manager123"), Role: RoleManager},
		}
	}
	return a
}

// HashPassword returns hex sha256(password + secret key)
func (a *Authenticator) HashPassword(password string) string {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write(a.secretKey)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckPassword verifies a username/password pair in constant time
func (a *Authenticator) CheckPassword(username, password string) bool {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return false
	}

	if username == a.superUser {
		return subtle.ConstantTimeCompare([]byte(password), []byte(a.superPass)) == 1
	}

	cred, ok := a.users[username]
	if !ok {
		return false
	}
	if isBcrypt(cred.PasswordHash) {
		return bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.HashPassword(password)), []byte(cred.PasswordHash)) == 1
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

// UserRole returns the role of a known user
func (a *Authenticator) UserRole(username string) (Role, bool) {
	username = strings.TrimSpace(username)
	if username == a.superUser {
		return RoleSuperadmin, true
	}
	cred, ok := a.users[username]
	if !ok {
		return "", false
	}
	return cred.Role, true
}

// Login authenticates the session when the credentials are correct.
// On failure the session is left unauthenticated.
func (a *Authenticator) Login(s *Session, username, password string) error {
	if !a.CheckPassword(username, password) {
		a.logger.Warn("Login failed", zap.String("username", strings.TrimSpace(username)))
		s.Logout()
		return ErrInvalidCredentials
	}

	username = strings.TrimSpace(username)
	role, _ := a.UserRole(username)
	s.Username = username
	s.Role = role
	s.Authenticated = true

	a.logger.Info("User logged in",
		zap.String("username", username),
		zap.String("role", string(role)),
	)
	return nil
}
