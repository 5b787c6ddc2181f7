package config

import (
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/google"
)

const zoomTokenURL = "https://zoom.us/oauth/token"

func OAuthConfig(c *Config) *oauth2.Config {
	scopes := []string{"openid", "email", "profile"}
	return &oauth2.Config{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURL:  c.GoogleRedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// ZoomOAuthConfig builds the server-to-server credentials flow Zoom calls
// "account_credentials". It returns nil when Zoom is not configured.
func ZoomOAuthConfig(c *Config) *clientcredentials.Config {
	if !c.ZoomEnabled() {
		return nil
	}
	return &clientcredentials.Config{
		ClientID:     c.ZoomClientID,
		ClientSecret: c.ZoomClientSecret,
		TokenURL:     zoomTokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {c.ZoomAccountID},
		},
	}
}
