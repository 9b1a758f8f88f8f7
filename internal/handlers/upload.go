package handlers

import (
	"io"
	"net/http"

	"clinic_backend/internal/services"
	"clinic_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds a single multipart file.
const maxUploadBytes = 20 << 20

// formFile opens the named multipart field. The caller closes the returned reader.
func formFile(c *gin.Context, field string) (services.FileUpload, io.Closer, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "File field '"+field+"' is required.", err.Error()))
		return services.FileUpload{}, nil, false
	}
	if header.Size > maxUploadBytes {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusRequestEntityTooLarge, utils.ErrCodeBadRequest, "File is too large.", header.Filename))
		return services.FileUpload{}, nil, false
	}
	f, err := header.Open()
	if err != nil {
		utils.LogError(err, "formFile: failed to open multipart file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Could not read uploaded file.", ""))
		return services.FileUpload{}, nil, false
	}
	return services.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, f, true
}
