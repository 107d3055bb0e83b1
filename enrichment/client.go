package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

//Clienter provides an interface of Client functions. Useful for mocking
type Clienter interface {
	FetchIcebreaker(ctx context.Context) (string, error)
	FetchVibe(ctx context.Context, bio string) ([]byte, string, error)
}

//Client calls the external enrichment providers
type Client struct {
	icebreakerURL string
	vibeURL       string
	httpClient    *http.Client
}

//NewClient returns a client for the icebreaker and vibe providers.
//Passing a nil httpClient falls back to http.DefaultClient.
func NewClient(icebreakerURL string, vibeURL string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return Client{
		icebreakerURL: icebreakerURL,
		vibeURL:       vibeURL,
		httpClient:    httpClient,
	}
}

//FetchIcebreaker asks the provider for a generated question
func (c Client) FetchIcebreaker(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.icebreakerURL, nil)
	if err != nil {
		return "", fmt.Errorf("building icebreaker request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling icebreaker provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("icebreaker provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding icebreaker response: %w", err)
	}
	if payload.Question == "" {
		return "", fmt.Errorf("icebreaker response missing question field")
	}

	log.Debugf("fetched icebreaker: %s", payload.Question)
	return payload.Question, nil
}

//FetchVibe sends the provided free text to the classifier and returns the
//provider's payload unmodified along with its content type
func (c Client) FetchVibe(ctx context.Context, bio string) ([]byte, string, error) {
	body, err := json.Marshal(map[string]string{"bio": bio})
	if err != nil {
		return nil, "", fmt.Errorf("encoding vibe request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.vibeURL, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("building vibe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling vibe provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("vibe provider returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading vibe response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	return payload, contentType, nil
}
