// Package domain holds the core types shared across services and handlers.
package domain

import "time"

// ClaimSet is the verified identity returned by the provider after a
// successful login. All fields are optional; absent claims stay zero.
type ClaimSet struct {
	OID               string `json:"oid"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Audience          string `json:"aud,omitempty"`
	Issuer            string `json:"iss,omitempty"`
	IssuedAt          int64  `json:"iat,omitempty"`
	ExpiresAt         int64  `json:"exp,omitempty"`
	TenantID          string `json:"tid,omitempty"`
}

// DisplayName returns the best human-readable label for the user.
func (c *ClaimSet) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	return c.OID
}

// LoginRecord is one row of the user_logins audit table. Nil pointers map to
// NULL columns; IssuedAt and ExpiresAt are absolute timestamps (epoch for
// missing claims).
type LoginRecord struct {
	OID               *string
	Name              *string
	PreferredUsername *string
	Audience          *string
	Issuer            *string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	TenantID          *string
	AccessTime        time.Time
}
