// Package zoom creates and deletes scheduled meetings through the Zoom
// server-to-server OAuth API.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const DefaultBaseURL = "https://api.zoom.us/v2"

// scheduledMeeting is Zoom's meeting type for a meeting with a fixed start time.
const scheduledMeeting = 2

type MeetingRequest struct {
	Topic           string
	Agenda          string
	StartTime       time.Time
	DurationMinutes int
}

type Meeting struct {
	ID       string `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
	Password string `json:"password,omitempty"`
}

type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a client whose requests carry an account-credentials
// access token, refreshed automatically by the oauth2 token source.
func NewClient(cfg *clientcredentials.Config) *Client {
	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = 15 * time.Second
	return NewClientWithHTTP(httpClient, DefaultBaseURL)
}

func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: baseURL}
}

type createMeetingBody struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Agenda    string          `json:"agenda,omitempty"`
	Settings  meetingSettings `json:"settings"`
}

type meetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
	HostVideo      bool `json:"host_video"`
}

type meetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
	Password string `json:"password"`
}

func (c *Client) CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	body, err := json.Marshal(createMeetingBody{
		Topic:     req.Topic,
		Type:      scheduledMeeting,
		StartTime: req.StartTime.UTC().Format(time.RFC3339),
		Duration:  req.DurationMinutes,
		Timezone:  "UTC",
		Agenda:    req.Agenda,
		Settings: meetingSettings{
			JoinBeforeHost: false,
			WaitingRoom:    true,
			HostVideo:      true,
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build meeting request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out meetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode meeting response: %w", err)
	}
	return &Meeting{
		ID:       strconv.FormatInt(out.ID, 10),
		JoinURL:  out.JoinURL,
		StartURL: out.StartURL,
		Password: out.Password,
	}, nil
}

// DeleteMeeting treats an already-deleted meeting as success.
func (c *Client) DeleteMeeting(ctx context.Context, meetingID string) error {
	endpoint := c.baseURL + "/meetings/" + url.PathEscape(meetingID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	}
	return apiError(resp)
}

func apiError(resp *http.Response) error {
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return fmt.Errorf("zoom api: %d %s (code %d)", resp.StatusCode, body.Message, body.Code)
	}
	return fmt.Errorf("zoom api: unexpected status %d", resp.StatusCode)
}
