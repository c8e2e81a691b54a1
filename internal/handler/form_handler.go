package handler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/utils"
)

// FormHandler handles the create/edit form endpoints.
type FormHandler struct {
	forms    *service.FormService
	maxBytes int64
}

// NewFormHandler constructs a FormHandler. maxBytes bounds how much of each
// uploaded file is read; larger files are refused by the staging policy.
func NewFormHandler(forms *service.FormService, maxBytes int64) *FormHandler {
	return &FormHandler{forms: forms, maxBytes: maxBytes}
}

// StartShop handles POST /v1/forms/shops
func (h *FormHandler) StartShop(c *gin.Context) {
	v, err := h.forms.StartShop(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 201, "Form opened", v)
}

// EditShop handles POST /v1/forms/shops/:id
func (h *FormHandler) EditShop(c *gin.Context) {
	v, err := h.forms.EditShop(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 201, "Form opened", v)
}

// StartProduct handles POST /v1/forms/products
func (h *FormHandler) StartProduct(c *gin.Context) {
	v, err := h.forms.StartProduct(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 201, "Form opened", v)
}

// GetForm handles GET /v1/forms/:formId
func (h *FormHandler) GetForm(c *gin.Context) {
	v, err := h.forms.Get(middleware.GetSession(c), c.Param("formId"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 200, "Form retrieved", v)
}

// PatchForm handles PATCH /v1/forms/:formId
func (h *FormHandler) PatchForm(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, utils.ErrInvalidRequest, nil)
		return
	}
	v, err := h.forms.Patch(middleware.GetSession(c), c.Param("formId"), body)
	if err != nil {
		respondError(c, err, v)
		return
	}
	utils.Success(c, 200, "Form updated", v)
}

// CancelForm handles DELETE /v1/forms/:formId
func (h *FormHandler) CancelForm(c *gin.Context) {
	if err := h.forms.Cancel(middleware.GetSession(c), c.Param("formId")); err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 200, "Form discarded", nil)
}

// StageImages handles POST /v1/forms/:formId/images?slot=logo|images|certificate
// with the files in the multipart "files" field.
func (h *FormHandler) StageImages(c *gin.Context) {
	uploads, err := h.readUploads(c)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	v, err := h.forms.Stage(c.Request.Context(), middleware.GetSession(c), c.Param("formId"), c.Query("slot"), uploads)
	if err != nil {
		respondError(c, err, v)
		return
	}
	message := "Images staged"
	if len(v.Warnings) > 0 {
		message = fmt.Sprintf("%d file(s) were not added", len(v.Warnings))
	}
	utils.Success(c, 200, message, v)
}

// RemoveImage handles DELETE /v1/forms/:formId/images/:index?slot=
func (h *FormHandler) RemoveImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, utils.ErrInvalidIndex, nil)
		return
	}
	v, err := h.forms.RemoveImage(middleware.GetSession(c), c.Param("formId"), c.Query("slot"), index)
	if err != nil {
		respondError(c, err, v)
		return
	}
	utils.Success(c, 200, "Image removed", v)
}

// SubmitForm handles POST /v1/forms/:formId/submit
func (h *FormHandler) SubmitForm(c *gin.Context) {
	res, v, err := h.forms.Submit(c.Request.Context(), middleware.GetSession(c), c.Param("formId"))
	if err != nil {
		respondError(c, err, v)
		return
	}
	utils.SuccessRedirect(c, 200, res.Message, nil, res.Navigate)
}

func (h *FormHandler) readUploads(c *gin.Context) ([]staging.Upload, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, utils.ErrInvalidRequest
	}
	files := mf.File["files"]
	if len(files) == 0 {
		return nil, utils.ErrNoFiles
	}

	uploads := make([]staging.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
		}
		uploads = append(uploads, staging.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}
