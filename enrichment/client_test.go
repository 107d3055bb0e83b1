package enrichment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchIcebreaker(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		question    string
		expectError bool
	}{
		{
			name: "Returns question from provider",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"question": "what is your spirit animal?"}`)
			},
			question: "what is your spirit animal?",
		},
		{
			name: "Errors on non-2xx status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			expectError: true,
		},
		{
			name: "Errors on malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"question":`)
			},
			expectError: true,
		},
		{
			name: "Errors on missing question field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"prompt": "wrong shape"}`)
			},
			expectError: true,
		},
	}

	for _, test := range tests {
		provider := httptest.NewServer(test.handler)
		client := NewClient(provider.URL, "", nil)
		question, err := client.FetchIcebreaker(context.Background())
		if test.expectError {
			assert.Error(err, test.name)
		} else {
			assert.NoError(err, test.name)
			assert.Equal(test.question, question, test.name)
		}
		provider.Close()
	}
}

func TestFetchIcebreakerNetworkFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	provider.Close()

	client := NewClient(provider.URL, "", nil)
	_, err := client.FetchIcebreaker(context.Background())
	assert.Error(t, err)
}

func TestFetchVibe(t *testing.T) {
	assert := assert.New(t)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(`{"bio": "I love hiking"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"vibe": "positive", "score": 0.92}`)
	}))
	defer provider.Close()

	client := NewClient("", provider.URL, nil)
	payload, contentType, err := client.FetchVibe(context.Background(), "I love hiking")
	assert.NoError(err)
	assert.Equal("application/json", contentType)
	assert.Equal(`{"vibe": "positive", "score": 0.92}`, string(payload))
}

func TestFetchVibeProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	client := NewClient("", provider.URL, nil)
	_, _, err := client.FetchVibe(context.Background(), "whatever")
	assert.Error(t, err)
}
