package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinFile_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("pinata_api_key"))
		require.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "deed.png", hdr.Filename)

		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmTestHash"})
	}))
	defer srv.Close()

	c := &PinataClient{APIKey: "key", SecretKey: "secret", BaseURL: srv.URL}
	hash, err := c.PinFile(context.Background(), "deed.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash", hash)
}

func TestPinFile_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := &PinataClient{APIKey: "key", SecretKey: "bad", BaseURL: srv.URL}
	_, err := c.PinFile(context.Background(), "deed.png", strings.NewReader("x"))
	var ue *UploadError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
	assert.Contains(t, ue.Body, "Invalid API key")
}

func TestPinFile_MissingCredentials(t *testing.T) {
	c := &PinataClient{}
	_, err := c.PinFile(context.Background(), "deed.png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PINATA_API_KEY")
}

func TestPinJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		content, _ := body["pinataContent"].(map[string]interface{})
		assert.Equal(t, "Harbor Lofts", content["name"])
		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmMetaHash"})
	}))
	defer srv.Close()

	c := &PinataClient{APIKey: "key", SecretKey: "secret", BaseURL: srv.URL}
	hash, err := c.PinJSON(context.Background(), map[string]string{"name": "Harbor Lofts"})
	require.NoError(t, err)
	assert.Equal(t, "QmMetaHash", hash)
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/QmMetaHash", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"name": "Harbor Lofts"})
	}))
	defer srv.Close()

	c := &PinataClient{Gateway: srv.URL}
	var out map[string]string
	require.NoError(t, c.FetchJSON(context.Background(), "QmMetaHash", &out))
	assert.Equal(t, "Harbor Lofts", out["name"])
}

func TestGatewayURL_Default(t *testing.T) {
	c := &PinataClient{}
	assert.Equal(t, "https://ipfs.io/ipfs/QmX", c.GatewayURL("QmX"))

	c.Gateway = "https://gw.example.com/ipfs/"
	assert.Equal(t, "https://gw.example.com/ipfs/QmX", c.GatewayURL("QmX"))
}
