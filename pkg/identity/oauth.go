package identity

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// oauthEndpoint returns the authorization endpoint, default scopes, and the
// identity platform provider ID for an OAuth provider.
func oauthEndpoint(provider OAuthProvider) (oauth2.Endpoint, []string, string, error) {
	switch provider {
	case ProviderGoogle:
		return google.Endpoint, []string{"openid", "email", "profile"}, "google.com", nil
	case ProviderGitHub:
		return github.Endpoint, []string{"read:user", "user:email"}, "github.com", nil
	case ProviderMicrosoft:
		return microsoft.AzureADEndpoint("common"), []string{"openid", "email", "profile"}, "microsoft.com", nil
	default:
		return oauth2.Endpoint{}, nil, "", fmt.Errorf("unknown OAuth provider: %s", provider)
	}
}

// runOAuthFlow performs the interactive authorization-code flow for one
// provider and returns a credential ready for the IdP sign-in endpoint.
func (c *RESTClient) runOAuthFlow(ctx context.Context, provider OAuthProvider) (*idpCredential, error) {
	clientCfg, ok := c.oauthClients[provider]
	if !ok {
		return nil, fmt.Errorf("no OAuth client registered for provider %s", provider)
	}

	endpoint, scopes, providerID, err := oauthEndpoint(provider)
	if err != nil {
		return nil, err
	}

	redirectURL := fmt.Sprintf("http://%s/callback", c.callbackAddr)
	oauthCfg := &oauth2.Config{
		ClientID:     clientCfg.ClientID,
		ClientSecret: clientCfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}

	state := uuid.NewString()
	authURL := oauthCfg.AuthCodeURL(state)

	values, err := awaitCallback(ctx, c.callbackAddr, "/callback", authURL, c.logger)
	if err != nil {
		return nil, err
	}
	if values.Get("state") != state {
		return nil, NewError(CodeNetworkFailure, "OAuth state mismatch")
	}
	code := values.Get("code")
	if code == "" {
		return nil, NewError(CodeNetworkFailure, "missing authorization code")
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, NewError(CodeNetworkFailure, err.Error())
	}

	postBody := url.Values{"providerId": {providerID}}
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		postBody.Set("id_token", idToken)
	} else {
		postBody.Set("access_token", token.AccessToken)
	}

	return &idpCredential{
		RequestURI: redirectURL,
		PostBody:   postBody.Encode(),
	}, nil
}
