package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Pinner pins content to IPFS and resolves pinned JSON.
type Pinner interface {
	PinFile(ctx context.Context, fileName string, r io.Reader) (string, error)
	PinJSON(ctx context.Context, v interface{}) (string, error)
	FetchJSON(ctx context.Context, hash string, out interface{}) error
	GatewayURL(hash string) string
}

// PinataClient is a Pinner backed by the Pinata HTTP API.
type PinataClient struct {
	APIKey    string
	SecretKey string
	Gateway   string // public gateway base, e.g. https://ipfs.io/ipfs
	BaseURL   string // override for tests; defaults to the Pinata API
	Client    *http.Client
}

const pinataBaseURL = "https://api.pinata.cloud"

func (c *PinataClient) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return pinataBaseURL
}

type pinataPinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (c *PinataClient) httpClient() *http.Client {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return c.Client
}

func (c *PinataClient) auth(req *http.Request) error {
	if c.APIKey == "" || c.SecretKey == "" {
		return fmt.Errorf("pinata: PINATA_API_KEY and PINATA_SECRET_KEY are not set")
	}
	req.Header.Set("pinata_api_key", c.APIKey)
	req.Header.Set("pinata_secret_api_key", c.SecretKey)
	return nil
}

// PinFile uploads file contents via pinFileToIPFS and returns the CID.
func (c *PinataClient) PinFile(ctx context.Context, fileName string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", err
	}
	if err := c.auth(req); err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.doPin(req)
}

// PinJSON uploads a JSON document via pinJSONToIPFS and returns the CID.
func (c *PinataClient) PinJSON(ctx context.Context, v interface{}) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{"pinataContent": v})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	if err := c.auth(req); err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doPin(req)
}

func (c *PinataClient) doPin(req *http.Request) (string, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{Status: resp.StatusCode, Body: string(respBody)}
	}
	var data pinataPinResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", &UploadError{Err: fmt.Errorf("pinata response decode: %w", err)}
	}
	if data.IpfsHash == "" {
		return "", &UploadError{Body: string(respBody), Err: fmt.Errorf("pinata returned no hash")}
	}
	return data.IpfsHash, nil
}

// FetchJSON resolves a pinned JSON document through the public gateway.
func (c *PinataClient) FetchJSON(ctx context.Context, hash string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GatewayURL(hash), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ipfs gateway: status %d body: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GatewayURL returns the public URL for a pinned hash.
func (c *PinataClient) GatewayURL(hash string) string {
	base := strings.TrimRight(c.Gateway, "/")
	if base == "" {
		base = "https://ipfs.io/ipfs"
	}
	return base + "/" + hash
}
