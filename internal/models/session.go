package models

import "time"

// Session binds an opaque, cookie-bound session id to an encrypted refresh
// token. A row exists only after a completed OAuth code exchange; a later
// exchange for the same session id supersedes the row (upsert).
//
// RefreshTokenEnc is an AEAD blob in the form base64(nonce).base64(ciphertext).
// The plaintext refresh token never touches storage or logs.
type Session struct {
	SessionID       string    `json:"session_id" badgerhold:"key"`
	RefreshTokenEnc string    `json:"refresh_token_enc"`
	Scope           string    `json:"scope,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
