package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

type technicianServiceStub struct {
	imported  dto.ImportTechniciansRequest
	withdraw  dto.WithdrawTechnicianRequest
	approved  string
	query     dto.TechnicianListQuery
	importErr error
}

func (s *technicianServiceStub) List(ctx context.Context, groupID string, query dto.TechnicianListQuery) ([]models.Technician, error) {
	s.query = query
	return []models.Technician{{ID: "t01"}, {ID: "t02"}}, nil
}

func (s *technicianServiceStub) Approve(ctx context.Context, groupID, techID string, actor models.Actor) (*models.Technician, error) {
	s.approved = techID
	if techID == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
	}
	return &models.Technician{ID: techID, Status: models.TechnicianApproved}, nil
}

func (s *technicianServiceStub) Withdraw(ctx context.Context, groupID, techID string, req dto.WithdrawTechnicianRequest, actor models.Actor) (*models.Technician, error) {
	s.withdraw = req
	return &models.Technician{ID: techID, Status: models.TechnicianReproved}, nil
}

func (s *technicianServiceStub) ImportRows(ctx context.Context, groupID string, req dto.ImportTechniciansRequest, actor models.Actor) (*dto.ImportTechniciansResponse, error) {
	s.imported = req
	if s.importErr != nil {
		return nil, s.importErr
	}
	return &dto.ImportTechniciansResponse{Created: len(req.Rows) - 1, Errors: []dto.ImportRowError{}}, nil
}

func TestTechnicianListBindsFilters(t *testing.T) {
	svc := &technicianServiceStub{}
	h := &TechnicianHandler{service: svc}
	c, w := newContext(t, http.MethodGet, "/groups/grp-1/technicians?status=AGENDADOS&city=sao+paulo&search=ana", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.TechnicianListQuery{Status: "AGENDADOS", City: "sao paulo", Search: "ana"}, svc.query)
	env := decode(t, w, nil)
	assert.EqualValues(t, 2, env.Meta["total"])
}

func TestTechnicianApproveNotFound(t *testing.T) {
	h := &TechnicianHandler{service: &technicianServiceStub{}}
	c, w := newContext(t, http.MethodPost, "/groups/grp-1/technicians/missing/approve", nil, ginParam("id", "missing"))

	h.Approve(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTechnicianWithdraw(t *testing.T) {
	svc := &technicianServiceStub{}
	h := &TechnicianHandler{service: svc}
	body := `{"targetStatus":"REPROVED","reason":"Reprovado na prova","reproofCategory":"TEORIA"}`
	c, w := newContext(t, http.MethodPost, "/groups/grp-1/technicians/t01/withdraw", jsonBody(body), ginParam("id", "t01"))

	h.Withdraw(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "REPROVED", svc.withdraw.TargetStatus)
	assert.Equal(t, "TEORIA", svc.withdraw.ReproofCategory)
}

func TestTechnicianImportJSONRows(t *testing.T) {
	svc := &technicianServiceStub{}
	h := &TechnicianHandler{service: svc}
	body := `{"rows":[["CPF","NOME","CIDADE"],["12345678901","ANA","CAMPINAS"]],"defaultStatus":"TRAINING_WITHOUT_CERTIFICATION"}`
	c, w := newContext(t, http.MethodPost, "/groups/grp-1/technicians/import", jsonBody(body))

	h.Import(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.imported.Rows, 2)
	assert.Equal(t, "TRAINING_WITHOUT_CERTIFICATION", svc.imported.DefaultStatus)
}

func TestTechnicianImportSemicolonCSV(t *testing.T) {
	svc := &technicianServiceStub{}
	h := &TechnicianHandler{service: svc}
	csvBody := "CPF;NOME COMPLETO;CIDADE\n123.456.789-01;\"SILVA; ANA\";Campinas\n98765432100;BRUNO;Santos\n"
	c, w := newContext(t, http.MethodPost, "/groups/grp-1/technicians/import?defaultStatus=PENDING_CERTIFICATION", strings.NewReader(csvBody))
	c.Request.Header.Set("Content-Type", "text/csv")

	h.Import(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.imported.Rows, 3)
	assert.Equal(t, []string{"123.456.789-01", "SILVA; ANA", "Campinas"}, svc.imported.Rows[1])
	assert.Equal(t, "PENDING_CERTIFICATION", svc.imported.DefaultStatus)
}

func TestTechnicianImportMultipart(t *testing.T) {
	svc := &technicianServiceStub{}
	h := &TechnicianHandler{service: svc}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "tecnicos.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("CPF,NOME,CIDADE\n12345678901,ANA,CAMPINAS\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("defaultStatus", "TRAINING_WITHOUT_CERTIFICATION"))
	require.NoError(t, mw.Close())

	c, w := newContext(t, http.MethodPost, "/groups/grp-1/technicians/import", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	h.Import(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.imported.Rows, 2)
	assert.Equal(t, "TRAINING_WITHOUT_CERTIFICATION", svc.imported.DefaultStatus)
}

func TestTechnicianImportMultipartWithoutFile(t *testing.T) {
	h := &TechnicianHandler{service: &technicianServiceStub{}}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("defaultStatus", "PENDING_CERTIFICATION"))
	require.NoError(t, mw.Close())

	c, w := newContext(t, http.MethodPost, "/groups/grp-1/technicians/import", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	h.Import(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadCSVDetectsDelimiter(t *testing.T) {
	rows, err := readCSV(strings.NewReader("CPF,NOME,CIDADE\n1,\"SILVA; ANA\",CAMPINAS\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "SILVA; ANA", "CAMPINAS"}, rows[1])

	rows, err = readCSV(strings.NewReader("CPF;NOME\n1;ANA;EXTRA\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "ANA", "EXTRA"}, rows[1])
}
