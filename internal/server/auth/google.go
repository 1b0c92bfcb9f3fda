package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/medvoice/medvoice/internal/common"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleUserInfo is the identity extracted from a verified Google ID token.
type GoogleUserInfo struct {
	GoogleID    string
	Email       string
	DisplayName string
	AvatarURL   string
}

// GoogleVerifier validates Google ID tokens by calling the tokeninfo
// endpoint and checking the token audience against the configured client id.
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	client       *http.Client
}

type GoogleVerifierOption func(*GoogleVerifier)

// WithTokenInfoURL overrides the tokeninfo endpoint, used in tests.
func WithTokenInfoURL(u string) GoogleVerifierOption {
	return func(v *GoogleVerifier) { v.tokenInfoURL = u }
}

func NewGoogleVerifier(clientID string, opts ...GoogleVerifierOption) *GoogleVerifier {
	v := &GoogleVerifier{
		clientID:     clientID,
		tokenInfoURL: defaultTokenInfoURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type tokenInfoResponse struct {
	Aud     string `json:"aud"`
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// VerifyIDToken resolves an ID token to user info, or
// common.ErrorUnauthorized when Google rejects it or the audience does not
// match our application.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	u := v.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.ErrorUnauthorized
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("tokeninfo decode: %w", err)
	}

	if info.Aud != v.clientID {
		return nil, common.ErrorUnauthorized
	}
	if info.Sub == "" || info.Email == "" {
		return nil, common.ErrorUnauthorized
	}

	return &GoogleUserInfo{
		GoogleID:    info.Sub,
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}, nil
}
