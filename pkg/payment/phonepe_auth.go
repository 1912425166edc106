package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTokenScheme is used when the auth response carries no token_type.
const DefaultTokenScheme = "O-Bearer"

// Credentials identify the merchant application at the gateway's OAuth endpoint.
type Credentials struct {
	ClientID      string
	ClientSecret  string
	ClientVersion string
}

// Authenticator exchanges client credentials for a bearer token.
type Authenticator struct {
	AuthURL string
	Creds   Credentials
	client  *http.Client
	log     *zap.Logger
}

func NewAuthenticator(authURL string, creds Credentials, client *http.Client, log *zap.Logger) *Authenticator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{AuthURL: authURL, Creds: creds, client: client, log: log}
}

// FetchToken performs a client-credentials grant. ExpiresAt on the result is
// left zero; the TokenCache stamps it with its own TTL.
func (a *Authenticator) FetchToken(ctx context.Context) (AuthToken, error) {
	const op = "phonepe.FetchToken"
	form := url.Values{
		"client_id":      {a.Creds.ClientID},
		"client_secret":  {a.Creds.ClientSecret},
		"client_version": {a.Creds.ClientVersion},
		"grant_type":     {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AuthToken{}, NewError(KindAuth, op, "build request", nil, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	a.log.Info("requesting auth token", zap.String("url", a.AuthURL))
	resp, err := a.client.Do(req)
	if err != nil {
		return AuthToken{}, NewError(KindAuth, op, "request failed", nil, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AuthToken{}, NewError(KindAuth, op, "read body", nil, err)
	}
	doc, jsonErr := decodeDocument(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.Error("auth request rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		msg := fmt.Sprintf("auth failed with status %d", resp.StatusCode)
		if jsonErr == nil {
			if desc := firstString(doc, authErrorPaths...); desc != "" {
				msg = desc
			}
		}
		return AuthToken{}, NewError(KindAuth, op, msg, body, nil)
	}
	if jsonErr != nil {
		return AuthToken{}, NewError(KindAuth, op, "auth response is not valid JSON", body, jsonErr)
	}
	token := firstString(doc, tokenPaths...)
	if token == "" {
		msg := "no access token in auth response"
		if desc := firstString(doc, authErrorPaths...); desc != "" {
			msg = msg + ": " + desc
		}
		return AuthToken{}, NewError(KindAuth, op, msg, body, nil)
	}
	scheme := firstString(doc, schemePaths...)
	if scheme == "" {
		scheme = DefaultTokenScheme
	}
	a.log.Info("auth token fetched", zap.String("scheme", scheme))
	return AuthToken{Value: token, Scheme: scheme}, nil
}
