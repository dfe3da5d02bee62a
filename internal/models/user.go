package models

import "strings"

// User is a Redmine account from /users.json
type User struct {
	ID          int        `json:"id"`
	Login       string     `json:"login"`
	Firstname   string     `json:"firstname"`
	Lastname    string     `json:"lastname"`
	Mail        string     `json:"mail,omitempty"`
	CreatedOn   Timestamp  `json:"created_on"`
	LastLoginOn *Timestamp `json:"last_login_on,omitempty"`
}

// Name returns the display name Redmine uses in embedded user refs
func (u User) Name() string {
	name := strings.TrimSpace(u.Firstname + " " + u.Lastname)
	if name == "" {
		return u.Login
	}
	return name
}

// Activity is a time entry activity enumeration value
type Activity struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Active    bool   `json:"active"`
}
