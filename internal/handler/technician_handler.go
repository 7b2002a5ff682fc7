package handler

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/response"
)

const maxImportBytes = 5 << 20

type technicianService interface {
	List(ctx context.Context, groupID string, query dto.TechnicianListQuery) ([]models.Technician, error)
	Approve(ctx context.Context, groupID, techID string, actor models.Actor) (*models.Technician, error)
	Withdraw(ctx context.Context, groupID, techID string, req dto.WithdrawTechnicianRequest, actor models.Actor) (*models.Technician, error)
	ImportRows(ctx context.Context, groupID string, req dto.ImportTechniciansRequest, actor models.Actor) (*dto.ImportTechniciansResponse, error)
}

// TechnicianHandler exposes the technician lifecycle.
type TechnicianHandler struct {
	service technicianService
}

// NewTechnicianHandler constructs the handler.
func NewTechnicianHandler(svc *service.TechnicianService) *TechnicianHandler {
	return &TechnicianHandler{service: svc}
}

// List godoc
// @Summary List technicians
// @Tags Technicians
// @Produce json
// @Param groupId path string true "Group ID"
// @Param status query string false "Status code or label"
// @Param city query string false "City, accent-insensitive"
// @Param search query string false "Name or CPF fragment"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/technicians [get]
func (h *TechnicianHandler) List(c *gin.Context) {
	var query dto.TechnicianListQuery
	if !bindQuery(c, &query, "technician") {
		return
	}
	items, err := h.service.List(c.Request.Context(), c.Param("groupId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Approve godoc
// @Summary Mark a technician as approved
// @Tags Technicians
// @Produce json
// @Param groupId path string true "Group ID"
// @Param id path string true "Technician ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/technicians/{id}/approve [post]
func (h *TechnicianHandler) Approve(c *gin.Context) {
	tech, err := h.service.Approve(c.Request.Context(), c.Param("groupId"), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tech)
}

// Withdraw godoc
// @Summary Take a technician off the agenda
// @Tags Technicians
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param id path string true "Technician ID"
// @Param payload body dto.WithdrawTechnicianRequest true "Target status and reason"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/technicians/{id}/withdraw [post]
func (h *TechnicianHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawTechnicianRequest
	if !bindJSON(c, &req, "withdraw") {
		return
	}
	tech, err := h.service.Withdraw(c.Request.Context(), c.Param("groupId"), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tech)
}

// Import godoc
// @Summary Import technicians from a spreadsheet
// @Description Accepts JSON rows, a text/csv body or a multipart "file" field.
// @Tags Technicians
// @Accept json
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Param groupId path string true "Group ID"
// @Param defaultStatus query string false "PENDING_CERTIFICATION or TRAINING_WITHOUT_CERTIFICATION"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/technicians/import [post]
func (h *TechnicianHandler) Import(c *gin.Context) {
	req, err := importRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ImportRows(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func importRequest(c *gin.Context) (dto.ImportTechniciansRequest, error) {
	contentType := c.ContentType()
	switch {
	case contentType == "text/csv":
		rows, err := readCSV(io.LimitReader(c.Request.Body, maxImportBytes))
		return dto.ImportTechniciansRequest{Rows: rows, DefaultStatus: c.Query("defaultStatus")}, err
	case strings.HasPrefix(contentType, "multipart/"):
		header, err := c.FormFile("file")
		if err != nil {
			return dto.ImportTechniciansRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required")
		}
		if header.Size > maxImportBytes {
			return dto.ImportTechniciansRequest{}, appErrors.Clone(appErrors.ErrValidation, "file too large")
		}
		f, err := header.Open()
		if err != nil {
			return dto.ImportTechniciansRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read file")
		}
		defer f.Close()
		rows, err := readCSV(f)
		status := c.PostForm("defaultStatus")
		if status == "" {
			status = c.Query("defaultStatus")
		}
		return dto.ImportTechniciansRequest{Rows: rows, DefaultStatus: status}, err
	default:
		var req dto.ImportTechniciansRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload")
		}
		return req, nil
	}
}

// readCSV accepts comma or semicolon separated sheets, as exported by spreadsheet tools.
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read csv")
	}
	text := string(data)
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid csv")
	}
	return rows, nil
}
