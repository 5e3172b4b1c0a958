// Package files handles multipart uploads shared by the payment and
// maintenance routes.
package files

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/storage"
)

// FormField is the multipart field carrying the upload.
const FormField = "file"

// Upload returns a handler that stores the request's file under category and
// responds with its {filename, path}.
func Upload(store *storage.FileStore, category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile(FormField)
		if err != nil {
			respond.Error(c, apperr.Validation("multipart field %q is required", FormField))
			return
		}

		f, err := header.Open()
		if err != nil {
			respond.Error(c, apperr.Internal(err, "could not read upload"))
			return
		}
		defer f.Close()

		stored, err := store.Save(c.Request.Context(), category, header.Filename, f)
		switch {
		case errors.Is(err, storage.ErrUnsupportedType),
			errors.Is(err, storage.ErrTooLarge),
			errors.Is(err, storage.ErrEmpty):
			respond.Error(c, apperr.Validation("%v", err))
			return
		case err != nil:
			respond.Error(c, apperr.Internal(err, "could not store upload"))
			return
		}

		respond.Logger(c).WithFields(map[string]interface{}{
			"category": category,
			"path":     stored.Path,
		}).Info("File uploaded")
		c.JSON(http.StatusOK, stored)
	}
}
