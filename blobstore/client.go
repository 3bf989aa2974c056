package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"orgmachine/orgmachine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the boundary to the content-addressed store. Fetch returns nil
// on any error; failure is a fallback-returns-placeholder, never an error
// the caller has to handle.
type Client interface {
	Add(ctx context.Context, data []byte) (orgmachine.BlobHandle, error)
	Fetch(ctx context.Context, handle orgmachine.BlobHandle) []byte
}

// HTTPClient talks to a public gateway for reads and an API node for writes.
type HTTPClient struct {
	gateway string
	api     string
	http    *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		gateway: orgmachine.MakeOrGetConfig().GetString("blobGateway"),
		api:     orgmachine.MakeOrGetConfig().GetString("blobApi"),
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *HTTPClient) Add(ctx context.Context, data []byte) (orgmachine.BlobHandle, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "blob")
	if err != nil {
		return "", err
	}
	if _, err = part.Write(data); err != nil {
		return "", err
	}
	if err = writer.Close(); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.api+"/api/v0/add", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("blob add returned %d", resp.StatusCode)
	}
	var result struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Hash, nil
}

func (c *HTTPClient) Fetch(ctx context.Context, handle orgmachine.BlobHandle) []byte {
	if !Fetchable(handle) {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.gateway+"/ipfs/"+handle, nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		orgmachine.LogCLI(err.Error(), 3)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		orgmachine.LogCLI(fmt.Sprintf("blob gateway returned %d for %s", resp.StatusCode, handle), 3)
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return b
}
