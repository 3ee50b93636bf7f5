package slack

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const (
	// DefaultBaseURL is the Slack Web API root.
	DefaultBaseURL = "https://slack.com/api"

	// DefaultPageSize is the history page size used when the caller does not
	// pick one.
	DefaultPageSize = 100
)

// Client is a minimal Slack Web API client covering the calls the archiver
// needs: auth.test, the per-class list calls, users.list, and the paginated
// history calls.
type Client struct {
	// BaseURL can be pointed at a test server; it defaults to the real API.
	BaseURL string

	token      string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type authTestResponse struct {
	OK   bool `json:"ok"`
	AuthInfo
}

type channelsListResponse struct {
	OK       bool      `json:"ok"`
	Channels []Channel `json:"channels"`
}

type groupsListResponse struct {
	OK     bool    `json:"ok"`
	Groups []Group `json:"groups"`
}

type imListResponse struct {
	OK  bool `json:"ok"`
	IMs []DM `json:"ims"`
}

type usersListResponse struct {
	OK      bool   `json:"ok"`
	Members []User `json:"members"`
}

type historyResponse struct {
	OK       bool      `json:"ok"`
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// AuthTest confirms the token works and identifies the team and user.
func (c *Client) AuthTest() (*AuthInfo, error) {
	body, err := c.get("auth.test", nil)
	if err != nil {
		return nil, err
	}

	var authResp authTestResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return nil, err
	}
	if !authResp.OK {
		return nil, fmt.Errorf("slack API error: %s", string(body))
	}

	return &authResp.AuthInfo, nil
}

// ListChannels returns all public channels in the workspace.
func (c *Client) ListChannels() ([]Channel, error) {
	body, err := c.get("channels.list", nil)
	if err != nil {
		return nil, err
	}

	var listResp channelsListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, err
	}
	if !listResp.OK {
		return nil, fmt.Errorf("slack API error: %s", string(body))
	}

	return listResp.Channels, nil
}

// ListPrivateChannels returns all private channels (groups) the user is in.
func (c *Client) ListPrivateChannels() ([]Group, error) {
	body, err := c.get("groups.list", nil)
	if err != nil {
		return nil, err
	}

	var listResp groupsListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, err
	}
	if !listResp.OK {
		return nil, fmt.Errorf("slack API error: %s", string(body))
	}

	return listResp.Groups, nil
}

// ListDirectMessages returns all 1:1 direct-message conversations.
func (c *Client) ListDirectMessages() ([]DM, error) {
	body, err := c.get("im.list", nil)
	if err != nil {
		return nil, err
	}

	var listResp imListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, err
	}
	if !listResp.OK {
		return nil, fmt.Errorf("slack API error: %s", string(body))
	}

	return listResp.IMs, nil
}

// ListUsers returns every member of the workspace.
func (c *Client) ListUsers() ([]User, error) {
	body, err := c.get("users.list", nil)
	if err != nil {
		return nil, err
	}

	var listResp usersListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, err
	}
	if !listResp.OK {
		return nil, fmt.Errorf("slack API error: %s", string(body))
	}

	return listResp.Members, nil
}

// historyMethod maps a conversation type to its history endpoint.
func historyMethod(conversationType string) string {
	switch conversationType {
	case TypeGroup:
		return "groups.history"
	case TypeIM:
		return "im.history"
	default:
		return "channels.history"
	}
}

// FetchHistory retrieves the complete message history of one conversation,
// oldest first. Retrieval walks backward from the most recent message: each
// page is requested with `latest` set to the oldest timestamp seen so far,
// until the response says has_more is false.
//
// There is deliberately no page cap. A full export is the point of this tool,
// so a silent ceiling would drop history; very long-lived conversations just
// take a long time.
func (c *Client) FetchHistory(conversationType, channelID string, pageSize int) ([]Message, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	method := historyMethod(conversationType)

	var messages []Message
	latest := ""

	for {
		params := url.Values{}
		params.Set("channel", channelID)
		params.Set("oldest", "0")
		params.Set("count", fmt.Sprintf("%d", pageSize))
		if latest != "" {
			params.Set("latest", latest)
		}

		body, err := c.get(method, params)
		if err != nil {
			return nil, err
		}

		var page historyResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		if !page.OK {
			return nil, fmt.Errorf("slack API error: %s", string(body))
		}

		log.Printf("Retrieved %d messages in this page", len(page.Messages))
		messages = append(messages, page.Messages...)

		if !page.HasMore || len(messages) == 0 {
			break
		}
		latest = messages[len(messages)-1].TS
	}

	// Pages arrive newest-first; the archive wants oldest-first.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].TS < messages[j].TS
	})

	return messages, nil
}

func (c *Client) get(method string, params url.Values) ([]byte, error) {
	endpoint := c.BaseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
