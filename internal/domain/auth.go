package domain

import "time"

// Identity describes the authenticated subject carried in token claims.
type Identity struct {
	SubjectID string
	Username  string
	Role      UserRole
}

// TokenPair is the credential set handed to a client at login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	ExpiresIn    int64
	TokenType    string
}
