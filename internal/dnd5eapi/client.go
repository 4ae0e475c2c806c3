// Package dnd5eapi imports SRD spells and weapons from dnd5eapi.co into the
// YAML data layout read by data.Loader.
package dnd5eapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const BaseURL = "https://www.dnd5eapi.co"

type Client struct {
	BaseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: BaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Reference is an entry of an API list.
type Reference struct {
	Index string `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

type APIListResponse struct {
	Count   int         `json:"count"`
	Results []Reference `json:"results"`
	// Equipment categories list their members here instead of Results.
	Equipment []Reference `json:"equipment"`
}

// Refs returns whichever list the endpoint filled.
func (l *APIListResponse) Refs() []Reference {
	if len(l.Results) > 0 {
		return l.Results
	}
	return l.Equipment
}

// FetchList fetches /api/2014/<endpoint>.
func (c *Client) FetchList(ctx context.Context, endpoint string) (*APIListResponse, error) {
	var list APIListResponse
	if err := c.get(ctx, "/api/2014/"+endpoint, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// FetchItem fetches a path as returned in a Reference's URL.
func (c *Client) FetchItem(ctx context.Context, path string, out any) error {
	return c.get(ctx, path, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
