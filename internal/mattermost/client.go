package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiPrefix = "/api/v4"

// Client is a thin Mattermost v4 REST client with rate-limit retry and
// cached identity information.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	UserID   string
	Username string
}

// Login authenticates with a login id (username or email) and password.
// The session token is taken from the response header.
func Login(serverURL, loginID, password string) (*Client, error) {
	c := &Client{
		baseURL: normalizeServerURL(serverURL),
		http:    &http.Client{Timeout: 15 * time.Second},
	}

	body, err := json.Marshal(map[string]string{
		"login_id": loginID,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+apiPrefix+"/users/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope apiErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{Message: envelope.Message}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, ID: envelope.ID, Message: envelope.Message}
	}

	token := resp.Header.Get("Token")
	if token == "" {
		return nil, &AuthError{Message: "login response carried no session token"}
	}

	var me User
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}

	c.token = token
	c.UserID = me.ID
	c.Username = me.Username
	return c, nil
}

// NewWithToken creates a Client from a stored session token and validates it
// against /users/me, populating the identity fields.
func NewWithToken(serverURL, token string) (*Client, error) {
	c := &Client{
		baseURL: normalizeServerURL(serverURL),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}

	me, err := c.GetMe(context.Background())
	if err != nil {
		return nil, err
	}
	c.UserID = me.ID
	c.Username = me.Username
	return c, nil
}

// Token returns the session token for authenticated requests.
func (c *Client) Token() string { return c.token }

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string { return c.baseURL }

// normalizeServerURL strips a trailing slash and defaults to https.
func normalizeServerURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s != "" && !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return s
}

// do performs an authenticated request and decodes the JSON response into
// out (if non-nil). If the server rate-limits, it sleeps for the requested
// interval and retries once.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	err := c.doOnce(ctx, method, path, in, out)

	var apiErr *APIError
	if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		select {
		case <-time.After(retryAfter(apiErr)):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = c.doOnce(ctx, method, path, in, out)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// mapError converts a non-2xx response into the typed error taxonomy.
func (c *Client) mapError(resp *http.Response) error {
	var envelope apiErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &AuthError{Message: envelope.Message}
	case http.StatusForbidden:
		return &NotMemberError{Message: envelope.Message}
	default:
		apiErr := &APIError{StatusCode: resp.StatusCode, ID: envelope.ID, Message: envelope.Message}
		if resp.StatusCode == http.StatusTooManyRequests {
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				apiErr.RetryAfter = secs
			}
		}
		return apiErr
	}
}

// retryAfter returns the rate-limit wait, defaulting to one second.
func retryAfter(e *APIError) time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return time.Second
}

func asAPIError(err error, target **APIError) bool {
	if e, ok := err.(*APIError); ok {
		*target = e
		return true
	}
	return false
}

// GetMe returns the authenticated user.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var me User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &me)
	return me, err
}

// GetUsersByIDs resolves a batch of user ids to user profiles.
func (c *Client) GetUsersByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []User
	err := c.do(ctx, http.MethodPost, "/users/ids", ids, &users)
	return users, err
}

// GetMyTeams returns the teams the authenticated user belongs to.
func (c *Client) GetMyTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	err := c.do(ctx, http.MethodGet, "/users/me/teams", nil, &teams)
	return teams, err
}

// GetMyChannels returns the channels the user is a member of in a team.
func (c *Client) GetMyChannels(ctx context.Context, teamID string) ([]Channel, error) {
	var channels []Channel
	err := c.do(ctx, http.MethodGet, "/users/me/teams/"+teamID+"/channels", nil, &channels)
	if err != nil {
		if nm, ok := err.(*NotMemberError); ok {
			nm.Resource = teamID
		}
		return nil, err
	}
	return channels, nil
}

// GetChannelByName looks up a channel by its URL name within a team.
func (c *Client) GetChannelByName(ctx context.Context, teamID, name string) (*Channel, error) {
	var ch Channel
	err := c.do(ctx, http.MethodGet, "/teams/"+teamID+"/channels/name/"+url.PathEscape(name), nil, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetPosts returns the most recent page of posts for a channel.
func (c *Client) GetPosts(ctx context.Context, channelID string, perPage int) (*PostList, error) {
	var pl PostList
	path := fmt.Sprintf("/channels/%s/posts?per_page=%d", channelID, perPage)
	if err := c.do(ctx, http.MethodGet, path, nil, &pl); err != nil {
		return nil, err
	}
	return &pl, nil
}

// GetPostsSince returns posts created or modified after the given
// millisecond timestamp.
func (c *Client) GetPostsSince(ctx context.Context, channelID string, since int64) (*PostList, error) {
	var pl PostList
	path := fmt.Sprintf("/channels/%s/posts?since=%d", channelID, since)
	if err := c.do(ctx, http.MethodGet, path, nil, &pl); err != nil {
		return nil, err
	}
	return &pl, nil
}

// CreatePost creates a post. The PendingPostID on the input is echoed back
// on the created post and on the matching websocket event, which is what
// lets the store reconcile an optimistic entry with its confirmation.
func (c *Client) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	var created Post
	if err := c.do(ctx, http.MethodPost, "/posts", post, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ViewChannel reports the channel as viewed, clearing server-side unreads.
func (c *Client) ViewChannel(ctx context.Context, channelID string) error {
	in := map[string]string{"channel_id": channelID}
	return c.do(ctx, http.MethodPost, "/channels/members/me/view", in, nil)
}

// CreateChannel creates a channel in a team.
func (c *Client) CreateChannel(ctx context.Context, ch *Channel) (*Channel, error) {
	var created Channel
	if err := c.do(ctx, http.MethodPost, "/channels", ch, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// JoinChannel adds the authenticated user to a channel.
func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	in := map[string]string{"user_id": c.UserID}
	err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/members", in, nil)
	if nm, ok := err.(*NotMemberError); ok {
		nm.Resource = channelID
	}
	return err
}
