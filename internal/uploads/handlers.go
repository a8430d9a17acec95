package uploads

import (
	"strings"

	"digipay-backend/internal/ipfs"
	"digipay-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const maxImageBytes = 10 << 20 // 10 MiB

// Handlers pins property media and metadata to IPFS.
type Handlers struct {
	Pinner ipfs.Pinner
}

// UploadPropertyImage POST /api/v1/uploads/property-image — multipart "file".
// Returns the CID and the public gateway URL used as the listing image URI.
func (h *Handlers) UploadPropertyImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "An image file is required", fiber.StatusBadRequest, nil)
	}
	if fh.Size > maxImageBytes {
		return response.Error(c, "Image exceeds the 10MB limit", fiber.StatusRequestEntityTooLarge, nil)
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return response.Error(c, "Only image uploads are allowed", fiber.StatusBadRequest, nil)
	}

	f, err := fh.Open()
	if err != nil {
		return response.Error(c, "Failed to read upload", fiber.StatusBadRequest, nil)
	}
	defer f.Close()

	hash, err := h.Pinner.PinFile(c.Context(), fh.Filename, f)
	if err != nil {
		log.Error().Err(err).Str("filename", fh.Filename).Msg("property image pin failed")
		return response.Error(c, "Failed to upload image", fiber.StatusBadGateway, nil)
	}

	return response.SuccessCreated(c, "Image uploaded", fiber.Map{
		"hash": hash,
		"url":  h.Pinner.GatewayURL(hash),
	}, nil)
}

// metadataRequest is the free-form metadata document pinned next to a listing.
type metadataRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	Attributes  map[string]interface{} `json:"attributes"`
}

// UploadPropertyMetadata POST /api/v1/uploads/property-metadata — pin a JSON
// metadata document and return its CID.
func (h *Handlers) UploadPropertyMetadata(c *fiber.Ctx) error {
	var req metadataRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Metadata body is required", fiber.StatusBadRequest, nil)
	}
	if req.Name == "" {
		return response.Error(c, "Metadata name is required", fiber.StatusBadRequest, nil)
	}

	hash, err := h.Pinner.PinJSON(c.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("property metadata pin failed")
		return response.Error(c, "Failed to upload metadata", fiber.StatusBadGateway, nil)
	}

	return response.SuccessCreated(c, "Metadata uploaded", fiber.Map{
		"hash": hash,
		"url":  h.Pinner.GatewayURL(hash),
	}, nil)
}
