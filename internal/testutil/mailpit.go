package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const mailpitPollInterval = 100 * time.Millisecond

// ErrNoMessage is returned when no matching email arrived in time.
var ErrNoMessage = errors.New("no matching message")

// MailpitClient reads the inbox of a Mailpit container over its REST API.
type MailpitClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMailpitClient creates a Mailpit API client.
func NewMailpitClient(host string, port int) *MailpitClient {
	return &MailpitClient{
		baseURL:    fmt.Sprintf("http://%s:%d/api/v1", host, port),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// MailAddress is a sender or recipient of a message.
type MailAddress struct {
	Address string `json:"Address"`
	Name    string `json:"Name"`
}

// Mail is a message as stored by Mailpit. HTML is only filled by Message.
type Mail struct {
	ID      string        `json:"ID"`
	From    MailAddress   `json:"From"`
	To      []MailAddress `json:"To"`
	Subject string        `json:"Subject"`
	HTML    string        `json:"HTML"`
}

// Search returns the messages matching a Mailpit search query, newest first,
// e.g. `to:"alice@example.com" subject:"expired"`.
func (c *MailpitClient) Search(query string) ([]Mail, error) {
	var result struct {
		Messages []Mail `json:"messages"`
	}
	if err := c.get("/search?query="+url.QueryEscape(query), &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return result.Messages, nil
}

// Message returns one message with its HTML body.
func (c *MailpitClient) Message(id string) (*Mail, error) {
	var m Mail
	if err := c.get("/message/"+url.PathEscape(id), &m); err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return &m, nil
}

// WaitForMail polls until a message to the recipient with the exact subject
// arrives and returns it with its body.
func (c *MailpitClient) WaitForMail(to, subject string, timeout time.Duration) (*Mail, error) {
	query := fmt.Sprintf("to:%q subject:%q", to, subject)
	deadline := time.Now().Add(timeout)

	for {
		found, err := c.Search(query)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			if m.Subject == subject {
				return c.Message(m.ID)
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: to %s subject %q", ErrNoMessage, to, subject)
		}
		time.Sleep(mailpitPollInterval)
	}
}

// DeleteAll clears the inbox.
func (c *MailpitClient) DeleteAll() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/messages", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete messages: status %d", resp.StatusCode)
	}
	return nil
}

func (c *MailpitClient) get(path string, v any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
