package github

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthProvider supplies an API token for a repository.
type AuthProvider interface {
	Token(repo string) (string, error)
}

// TokenAuth is the static personal-access-token provider.
type TokenAuth struct {
	AccessToken string
}

// Token returns the configured token regardless of repository.
func (t *TokenAuth) Token(repo string) (string, error) {
	if t.AccessToken == "" {
		return "", fmt.Errorf("no access token configured")
	}
	return t.AccessToken, nil
}

// AppAuth exchanges a GitHub App JWT for an installation access token.
// Tokens are cached per repository until shortly before expiry.
type AppAuth struct {
	AppID      string
	PrivateKey string

	mu    sync.Mutex
	cache map[string]installationToken
}

type installationToken struct {
	token     string
	expiresAt time.Time
}

// Token returns an installation access token for the given "owner/repo".
func (a *AppAuth) Token(repo string) (string, error) {
	a.mu.Lock()
	if cached, ok := a.cache[repo]; ok && time.Until(cached.expiresAt) > time.Minute {
		a.mu.Unlock()
		return cached.token, nil
	}
	a.mu.Unlock()

	jwtToken, err := a.generateJWT()
	if err != nil {
		return "", err
	}

	installationID, err := a.getInstallationID(jwtToken, repo)
	if err != nil {
		return "", err
	}

	token, expiresAt, err := a.getInstallationAccessToken(jwtToken, installationID)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	if a.cache == nil {
		a.cache = make(map[string]installationToken)
	}
	a.cache[repo] = installationToken{token: token, expiresAt: expiresAt}
	a.mu.Unlock()

	return token, nil
}

// generateJWT creates the short-lived App JWT used for installation lookups.
func (a *AppAuth) generateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	appID, err := strconv.ParseInt(a.AppID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

func (a *AppAuth) getInstallationID(jwtToken, repo string) (int64, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid repo format: %s (expected owner/repo)", repo)
	}
	owner, repoName := parts[0], parts[1]

	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/installation", owner, repoName)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to get installation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.ID, nil
}

func (a *AppAuth) getInstallationAccessToken(jwtToken string, installationID int64) (string, time.Time, error) {
	url := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", installationID)
	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Token, result.ExpiresAt, nil
}
