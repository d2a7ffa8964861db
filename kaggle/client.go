package kaggle

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v2"
)

const defaultBaseURL = "https://www.kaggle.com/api/v1"

// Client downloads dataset archives from the Kaggle API and extracts them
// into a destination directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	logger     *log.Logger
}

// NewClient resolves credentials from the environment or the local Kaggle
// token file and returns a ready client. The logger may be nil.
func NewClient(logger *log.Logger) (*Client, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}
	return NewClientWithCredentials(creds, logger), nil
}

// NewClientWithCredentials builds a client with explicit credentials.
func NewClientWithCredentials(creds Credentials, logger *log.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		creds:      creds,
		logger:     logger,
	}
}

// Download fetches the zip archive for a "owner/dataset" reference and
// extracts it under dest. The archive is streamed to a temporary file next
// to dest so a failed download never leaves a partial extraction behind.
func (c *Client) Download(ctx context.Context, ref, dest string) error {
	url := fmt.Sprintf("%s/datasets/download/%s", c.baseURL, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Key)

	c.logf("Downloading %s", ref)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Reason: "dataset download " + ref, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("download %s: unexpected status %s", ref, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+"-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	var w io.Writer = tmp
	if resp.ContentLength > 0 {
		bar := progressbar.NewOptions(
			int(resp.ContentLength),
			progressbar.OptionSetBytes(int(resp.ContentLength)),
			progressbar.OptionSetDescription(ref),
		)
		w = io.MultiWriter(tmp, bar)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	c.logf("Extracting %s to %s", ref, dest)
	if err := extractZip(tmp.Name(), dest); err != nil {
		return fmt.Errorf("extract %s: %w", ref, err)
	}
	return nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
