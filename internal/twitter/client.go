package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	defaultAPIURL    = "https://api.twitter.com/1.1"
	defaultUploadURL = "https://upload.twitter.com/1.1"
)

// Client posts statuses and media to the Twitter v1.1 API. Requests are
// signed with OAuth1 user credentials.
type Client struct {
	APIURL     string
	UploadURL  string
	HTTPClient *http.Client
}

// Credentials holds the four OAuth1 keys for a bot account.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// NewClient creates a Twitter client for the given account credentials.
func NewClient(creds Credentials) *Client {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		APIURL:     defaultAPIURL,
		UploadURL:  defaultUploadURL,
		HTTPClient: httpClient,
	}
}

type mediaResponse struct {
	MediaID int64 `json:"media_id"`
}

// UploadMedia uploads an image file and returns its media ID for use in a
// subsequent status update.
func (c *Client) UploadMedia(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.UploadURL+"/media/upload.json", &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return 0, err
	}

	var mr mediaResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return 0, err
	}
	if mr.MediaID == 0 {
		return 0, fmt.Errorf("media upload returned no media_id")
	}
	return mr.MediaID, nil
}

// UpdateStatus posts a status, optionally attaching previously uploaded
// media.
func (c *Client) UpdateStatus(ctx context.Context, status string, mediaIDs []int64) error {
	form := url.Values{}
	form.Set("status", status)
	if len(mediaIDs) > 0 {
		ids := make([]string, len(mediaIDs))
		for i, id := range mediaIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		form.Set("media_ids", strings.Join(ids, ","))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.APIURL+"/statuses/update.json", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Twitter API error: %d %s: %s", resp.StatusCode, resp.Status, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
