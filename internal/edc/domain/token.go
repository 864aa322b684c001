package domain

// TokenPair is what the auth endpoints return: a short-lived access token and
// a long-lived refresh token, both compact JWS strings.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
