package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vulnwatch/notifications-engine/internal/notification"
)

const fetchRetries = 3

// Client talks to the notification REST collaborators. It is independent
// of the live stream; its requests never block or serialize with it.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
			Timeout: 30 * time.Second,
		},
	}
}

type historicalResponse struct {
	Results []*notification.Raw `json:"results"`
}

// Historical fetches one page of the historical notification record,
// retrying transient failures with exponential backoff.
func (c *Client) Historical(ctx context.Context, page, pageSize int) ([]*notification.Raw, error) {
	url := fmt.Sprintf("%s/notifications?page=%d&page_size=%d", c.baseURL, page, pageSize)
	var results []*notification.Raw
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("historical fetch returned status %d", resp.StatusCode)
		}
		var hr historicalResponse
		if err = json.NewDecoder(resp.Body).Decode(&hr); err != nil {
			return err
		}
		results = hr.Results
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchRetries), ctx))
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MarkAllRead posts the mark-all-read mutation. No body is required.
func (c *Client) MarkAllRead(ctx context.Context) error {
	url := c.baseURL + "/notifications/mark-all-read"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("mark all read returned status %d", resp.StatusCode)
	}
	return nil
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// UnreadCount fetches the coarse server-side unread badge count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	url := c.baseURL + "/notifications/unread-count"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unread count returned status %d", resp.StatusCode)
	}
	var ucr unreadCountResponse
	if err = json.NewDecoder(resp.Body).Decode(&ucr); err != nil {
		return 0, err
	}
	return ucr.Count, nil
}
