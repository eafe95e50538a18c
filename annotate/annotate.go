package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agenttools"
)

// Client posts feedback records to a dataset on an annotation platform so
// humans can review tool behavior later.
type Client struct {
	endpoint   string
	dataset    string
	apiKey     string
	httpClient agenttools.HTTPClient
}

func NewClient(endpoint, dataset, apiKey string, httpClient agenttools.HTTPClient) *Client {
	return &Client{
		endpoint:   endpoint,
		dataset:    dataset,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// PutRecord submits one feedback record. A rating of zero means unrated and
// is omitted from the payload.
func (c *Client) PutRecord(ctx context.Context, toolName string, comment string, rating int) error {
	record := map[string]any{
		"tool_name":  toolName,
		"comment":    comment,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if rating > 0 {
		record["rating"] = rating
	}

	payload, err := json.Marshal(map[string]any{
		"records": []map[string]any{record},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/datasets/%s/records", c.endpoint, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to put record: %s", resp.Status)
	}

	return nil
}
