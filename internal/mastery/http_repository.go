package mastery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"
)

// HTTPRepository talks to a PostgREST-style endpoint exposing the srs table
// with the columns user_id, deck, payload and updated_at.
type HTTPRepository struct {
	httpClient    *resty.Client
	retryAttempts uint
	now           func() time.Time
}

func NewHTTPRepository(baseURL string, apiKey string, retryAttempts uint) *HTTPRepository {
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("apikey", apiKey)
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &HTTPRepository{
		httpClient:    client,
		retryAttempts: retryAttempts,
		now:           time.Now,
	}
}

func (r *HTTPRepository) Close() error {
	return r.httpClient.Close()
}

type srsRow struct {
	UserID    string    `json:"user_id"`
	Deck      string    `json:"deck"`
	Payload   Map       `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *HTTPRepository) Load(ctx context.Context, userID string, deckKey string) (Map, error) {
	var rows []srsRow
	err := withRetry(ctx, r.retryAttempts, func() error {
		rows = nil
		response, err := r.httpClient.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"select":  "payload",
				"user_id": "eq." + userKey(userID),
				"deck":    "eq." + deckKey,
			}).
			SetResult(&rows).
			Get("/srs")
		if err != nil {
			return fmt.Errorf("httpClient.Get > %w: %w", errRetryable, err)
		}
		return checkResponse(response)
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 || rows[0].Payload == nil {
		return Map{}, nil
	}
	return rows[0].Payload, nil
}

func (r *HTTPRepository) Save(ctx context.Context, userID string, deckKey string, records Map) error {
	row := srsRow{
		UserID:    userKey(userID),
		Deck:      deckKey,
		Payload:   records,
		UpdatedAt: r.now().UTC(),
	}
	return withRetry(ctx, r.retryAttempts, func() error {
		response, err := r.httpClient.R().
			SetContext(ctx).
			SetQueryParam("on_conflict", "user_id,deck").
			SetHeader("Prefer", "resolution=merge-duplicates").
			SetBody([]srsRow{row}).
			Post("/srs")
		if err != nil {
			return fmt.Errorf("httpClient.Post > %w: %w", errRetryable, err)
		}
		return checkResponse(response)
	})
}

func checkResponse(response *resty.Response) error {
	if !response.IsError() {
		return nil
	}
	err := fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	if response.StatusCode() >= http.StatusInternalServerError || response.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", errRetryable, err)
	}
	return err
}
