package auth

import "golang.org/x/oauth2"

// OAuthConfig exposes the unexported oauth2 config to the external test package.
func (dc *DiscordClient) OAuthConfig() *oauth2.Config {
	return dc.config
}
