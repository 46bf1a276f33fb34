package uploads

import (
	uploadsvc "swifttasks-backend/internal/application/uploads"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

// UploadDocAsset POST /api/v1/uploads/doc-asset
func (h *Handlers) UploadDocAsset(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var in uploadsvc.DocAssetInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	res, err := h.Service.DocAsset(c.Context(), id, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
