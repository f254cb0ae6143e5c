package controllers

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/middleware"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
)

// bind decodes the body by content type (JSON or form). It reports false after
// attaching a bad-request error.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBind(dst); err != nil {
		c.Error(apperrors.Wrap(apperrors.ErrBadRequest, err))
		return false
	}
	return true
}

// confirmed reports whether a destructive request carries confirm=true.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		c.Error(apperrors.ErrConfirmRequired)
		return false
	}
	return true
}

func formFiles(c *gin.Context, field string) []services.FileBlob {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	headers := form.File[field]
	blobs := make([]services.FileBlob, 0, len(headers))
	for _, fh := range headers {
		blobs = append(blobs, services.BlobFromFileHeader(fh))
	}
	return blobs
}

func formFile(c *gin.Context, field string) *services.FileBlob {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	blob := services.BlobFromFileHeader(fh)
	return &blob
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserContextKey)
}
