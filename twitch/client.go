package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultAuthURL  = "https://id.twitch.tv/oauth2/token"
	defaultHelixURL = "https://api.twitch.tv/helix"

	// Refresh the app token slightly before Twitch expires it.
	tokenExpiryMargin = 5 * time.Minute
)

type Stream struct {
	ID           string    `json:"id"`
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	GameID       string    `json:"game_id"`
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	StartedAt    time.Time `json:"started_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

type Video struct {
	ID           string    `json:"id"`
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishedAt  time.Time `json:"published_at"`
	Duration     string    `json:"duration"`
}

// Client ходит в Twitch Helix API и кэширует app access token
// (client credentials flow). Токен обновляется лениво, конкурентные
// обновления схлопываются через singleflight.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	authURL  string
	helixURL string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	group singleflight.Group
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		authURL:      defaultAuthURL,
		helixURL:     defaultHelixURL,
	}
}

// NewClientWithURLs используется в тестах для подмены эндпоинтов.
func NewClientWithURLs(clientID, clientSecret, authURL, helixURL string) *Client {
	c := NewClient(clientID, clientSecret)
	c.authURL = authURL
	c.helixURL = helixURL
	return c
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do("token", func() (interface{}, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response contains no access token")
	}

	expiry := time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	if body.ExpiresIn > 0 {
		expiry = expiry.Add(-tokenExpiryMargin)
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	return body.AccessToken, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	reqURL := c.helixURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Токен мог быть отозван раньше срока, сбрасываем кэш.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return fmt.Errorf("request to %s returned status %d", path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// GetStreamsByGame возвращает активные трансляции по игре.
func (c *Client) GetStreamsByGame(ctx context.Context, gameID string) ([]Stream, error) {
	var body struct {
		Data []Stream `json:"data"`
	}
	query := url.Values{
		"game_id": {gameID},
		"first":   {"100"},
	}
	if err := c.get(ctx, "/streams", query, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// GetUserID разрешает логин канала в числовой идентификатор.
func (c *Client) GetUserID(ctx context.Context, login string) (string, error) {
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/users", url.Values{"login": {login}}, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", nil
	}
	return body.Data[0].ID, nil
}

// GetChannelVideos возвращает последние архивные записи канала.
func (c *Client) GetChannelVideos(ctx context.Context, login string, limit int) ([]Video, error) {
	userID, err := c.GetUserID(ctx, login)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, nil
	}

	var body struct {
		Data []Video `json:"data"`
	}
	query := url.Values{
		"user_id": {userID},
		"first":   {fmt.Sprintf("%d", limit)},
		"sort":    {"time"},
		"type":    {"archive"},
	}
	if err := c.get(ctx, "/videos", query, &body); err != nil {
		return nil, err
	}

	for i := range body.Data {
		if body.Data[i].UserLogin == "" {
			body.Data[i].UserLogin = login
		}
	}
	return body.Data, nil
}
