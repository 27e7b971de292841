package ketryx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/Ketryx/build-api-reporter/internal/config"
)

// Artifact references one uploaded build artifact the way the builds
// endpoint expects it.
type Artifact struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// UploadError is returned when the build-artifacts endpoint responds with
// a non-success status. Body carries the raw response text.
type UploadError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload artifact %s (status %d): %s", e.Path, e.StatusCode, e.Body)
}

// ReportError is returned when the builds endpoint responds with a
// non-success status. Body carries the raw response text.
type ReportError struct {
	BuildName  string
	StatusCode int
	Body       string
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("failed to report build %q (status %d): %s", e.BuildName, e.StatusCode, e.Body)
}

// Client talks to the Ketryx build API. It is stateless: every call is an
// independent request and no results are cached.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a Ketryx API client for the given configuration.
func NewClient(cfg *Config) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UploadArtifact uploads a single file as a multipart request and returns
// the artifact id assigned by the service.
func (c *Client) UploadArtifact(path, contentType string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(path)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/build-artifacts?project=%s",
		c.config.BaseURL, url.QueryEscape(c.config.Project))

	req, err := http.NewRequest(http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	logrus.Debugf("uploading %s as %s", path, contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UploadError{Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	return result.ID, nil
}

// upload pairs a concrete file with the media type and artifact tag it is
// uploaded under.
type upload struct {
	path      string
	mediaType string
	tag       string
}

// UploadTestResults expands the given glob patterns and uploads every
// match: all junit patterns first, in the given order, then all cucumber
// patterns. JUnit files go up as application/xml tagged "junit-xml",
// cucumber files as application/json tagged "cucumber-json".
func (c *Client) UploadTestResults(junitPatterns, cucumberPatterns []string) ([]Artifact, error) {
	var uploads []upload
	for _, pattern := range junitPatterns {
		matches, err := config.Expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			uploads = append(uploads, upload{path: path, mediaType: "application/xml", tag: "junit-xml"})
		}
	}
	for _, pattern := range cucumberPatterns {
		matches, err := config.Expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			uploads = append(uploads, upload{path: path, mediaType: "application/json", tag: "cucumber-json"})
		}
	}

	return c.uploadAll(uploads)
}

// UploadSBOM expands the given glob patterns and uploads every match as
// application/json, tagged "<sbomType>-json" (e.g. "cyclonedx-json").
func (c *Client) UploadSBOM(patterns []string, sbomType string) ([]Artifact, error) {
	var uploads []upload
	for _, pattern := range patterns {
		matches, err := config.Expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			uploads = append(uploads, upload{path: path, mediaType: "application/json", tag: sbomType + "-json"})
		}
	}

	return c.uploadAll(uploads)
}

// uploadAll performs the uploads sequentially, in order, with a progress
// bar on stderr. The first failure aborts the batch.
func (c *Client) uploadAll(uploads []upload) ([]Artifact, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	bar := progressbar.NewOptions(len(uploads),
		progressbar.OptionSetDescription("Uploading artifacts"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionClearOnFinish(),
	)

	artifacts := make([]Artifact, 0, len(uploads))
	for _, u := range uploads {
		id, err := c.UploadArtifact(u.path, u.mediaType)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{ID: id, Type: u.tag})
		_ = bar.Add(1)
	}

	return artifacts, nil
}

// buildReport is the JSON body of the builds endpoint. Exactly one of
// Version and CommitSHA is set; Version wins when both are configured.
type buildReport struct {
	Project        string     `json:"project"`
	BuildName      string     `json:"buildName"`
	Artifacts      []Artifact `json:"artifacts"`
	SourceURL      string     `json:"sourceUrl"`
	RepositoryURLs []string   `json:"repositoryUrls"`
	Version        string     `json:"version,omitempty"`
	CommitSHA      string     `json:"commitSha,omitempty"`
}

// ReportBuild registers a build record referencing the uploaded artifacts
// and returns the build id assigned by the service.
func (c *Client) ReportBuild(buildName string, artifacts []Artifact) (string, error) {
	if artifacts == nil {
		artifacts = []Artifact{}
	}

	report := buildReport{
		Project:        c.config.Project,
		BuildName:      buildName,
		Artifacts:      artifacts,
		SourceURL:      c.config.SourceURL,
		RepositoryURLs: []string{c.config.SourceURL + "/" + c.config.Repository},
	}
	if c.config.Version != "" {
		report.Version = c.config.Version
	} else if c.config.CommitSHA != "" {
		report.CommitSHA = c.config.CommitSHA
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal build report: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.config.BaseURL+"/api/v1/builds", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	logrus.Debugf("reporting build %q with %d artifact(s)", buildName, len(artifacts))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read report response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ReportError{BuildName: buildName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		BuildID string `json:"buildId"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode report response: %w", err)
	}

	return result.BuildID, nil
}
