package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ilepins/userauth/internal/server/users"
)

// Client is a minimal REST client for the authentication server. It keeps
// the JWT from the last successful login and presents it on protected calls.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(method, path string, body any, authorized bool) (*envelope, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, &payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		if c.token == "" {
			return nil, errors.New("not logged in")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("unexpected response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, errors.New(env.Message)
	}
	return &env, nil
}

func (c *Client) Register(username, password, email string) (*users.PublicUser, error) {
	env, err := c.do(http.MethodPost, "/register", map[string]string{
		"username": username,
		"password": password,
		"email":    email,
	}, false)
	if err != nil {
		return nil, err
	}

	var user users.PublicUser
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(username, password string) (*users.PublicUser, error) {
	env, err := c.do(http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		return nil, err
	}

	var data struct {
		Token string           `json:"token"`
		User  users.PublicUser `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}

	c.token = data.Token
	return &data.User, nil
}

func (c *Client) Profile() (*users.PublicUser, error) {
	env, err := c.do(http.MethodGet, "/user", nil, true)
	if err != nil {
		return nil, err
	}

	var user users.PublicUser
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(current, replacement string) error {
	_, err := c.do(http.MethodPut, "/user/password", map[string]string{
		"current_password": current,
		"new_password":     replacement,
	}, true)
	return err
}

func (c *Client) DeleteAccount() error {
	_, err := c.do(http.MethodDelete, "/user", nil, true)
	if err == nil {
		c.token = ""
	}
	return err
}
