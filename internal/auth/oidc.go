package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Claims are the fields this service consumes from a verified ID token.
type Claims struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
}

// ClaimsVerifier handles the OIDC authorization-code flow: redirect,
// code exchange and ID-token verification.
type ClaimsVerifier struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewClaimsVerifier discovers the issuer and prepares the flow.
func NewClaimsVerifier(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*ClaimsVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discovering OIDC provider: %w", err)
	}

	return &ClaimsVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// AuthCodeURL builds the provider redirect for the given state.
func (v *ClaimsVerifier) AuthCodeURL(state string) string {
	return v.oauth2Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for a verified set of claims.
func (v *ClaimsVerifier) Exchange(ctx context.Context, code string) (*Claims, error) {
	oauth2Token, err := v.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("token response carried no id_token")
	}

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verifying ID token: %w", err)
	}

	var parsed struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := idToken.Claims(&parsed); err != nil {
		return nil, fmt.Errorf("parsing claims: %w", err)
	}
	if parsed.Email == "" {
		return nil, fmt.Errorf("ID token carried no email claim")
	}

	return &Claims{
		Subject:    idToken.Subject,
		Email:      parsed.Email,
		GivenName:  parsed.GivenName,
		FamilyName: parsed.FamilyName,
	}, nil
}
