// Package catalog fetches collectible character records from the external
// character catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// ErrNotFound is returned when the catalog has no character for an id.
// The catalog id range is sparse, so this is an expected outcome.
var ErrNotFound = errors.New("character not found")

// maxRandomAttempts caps not-found retries in Random so a misconfigured
// max id or a catalog outage cannot spin forever.
const maxRandomAttempts = 5

type Character struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Species  string `json:"species"`
	Image    string `json:"image"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
}

type Client struct {
	baseURL string
	maxID   int
	client  *http.Client
}

func NewClient(baseURL string, maxID int) *Client {
	return &Client{
		baseURL: baseURL,
		maxID:   maxID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Character fetches a single character by id.
func (c *Client) Character(ctx context.Context, id int) (*Character, error) {
	url := fmt.Sprintf("%s/character/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var character Character
	if err := json.NewDecoder(resp.Body).Decode(&character); err != nil {
		return nil, fmt.Errorf("catalog response decode failed: %w", err)
	}

	return &character, nil
}

// Random fetches a random character, retrying with a fresh id when the
// catalog reports not-found. Any other failure is returned immediately.
func (c *Client) Random(ctx context.Context) (*Character, error) {
	var lastErr error
	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		id := rand.Intn(c.maxID) + 1
		character, err := c.Character(ctx, id)
		if err == nil {
			return character, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no character found after %d attempts: %w", maxRandomAttempts, lastErr)
}
