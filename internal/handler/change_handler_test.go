package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

type lastChangeStub struct {
	notices map[string]models.ChangeNotice
	err     error
}

func (s *lastChangeStub) LastChange(ctx context.Context, groupID string) (*models.ChangeNotice, error) {
	if s.err != nil {
		return nil, s.err
	}
	notice, ok := s.notices[groupID]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return &notice, nil
}

func TestChangeHandlerLast(t *testing.T) {
	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	h := NewChangeHandler(&lastChangeStub{notices: map[string]models.ChangeNotice{
		"grp-1": {GroupID: "grp-1", Operation: "scheduling.run", At: at},
	}})

	c, w := newContext(t, http.MethodGet, "/groups/grp-1/changes/last", nil)
	h.Last(c)
	require.Equal(t, http.StatusOK, w.Code)
	var notice models.ChangeNotice
	decode(t, w, &notice)
	assert.Equal(t, "scheduling.run", notice.Operation)
	assert.True(t, at.Equal(notice.At))
}

func TestChangeHandlerLastMiss(t *testing.T) {
	h := NewChangeHandler(&lastChangeStub{})
	c, w := newContext(t, http.MethodGet, "/groups/grp-1/changes/last", nil)
	h.Last(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestChangeHandlerLastFailure(t *testing.T) {
	h := NewChangeHandler(&lastChangeStub{err: errors.New("redis down")})
	c, w := newContext(t, http.MethodGet, "/groups/grp-1/changes/last", nil)
	h.Last(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
