package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/response"
)

// LastChangeReader returns the most recent change notice of a group.
type LastChangeReader interface {
	LastChange(ctx context.Context, groupID string) (*models.ChangeNotice, error)
}

// ChangeHandler lets clients that missed websocket notices check whether to refresh.
type ChangeHandler struct {
	reader LastChangeReader
}

// NewChangeHandler constructs the handler.
func NewChangeHandler(reader LastChangeReader) *ChangeHandler {
	return &ChangeHandler{reader: reader}
}

// Last godoc
// @Summary Most recent change notice of the group
// @Tags Changes
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{groupId}/changes/last [get]
func (h *ChangeHandler) Last(c *gin.Context) {
	if h.reader == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no change recorded for this group"))
		return
	}
	notice, err := h.reader.LastChange(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no change recorded for this group"))
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, notice)
}
