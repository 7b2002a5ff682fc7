package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

func TestChangeNotifierFansOutInOrder(t *testing.T) {
	n := NewChangeNotifier(nil)
	var got []string
	n.Subscribe(func(c models.ChangeNotice) { got = append(got, "first:"+c.GroupID) })
	n.Subscribe(func(models.ChangeNotice) { panic("broken observer") })
	unsubscribe := n.Subscribe(func(c models.ChangeNotice) { got = append(got, "third:"+c.Operation) })
	assert.Equal(t, 3, n.Subscribers())

	n.Publish(models.ChangeNotice{GroupID: testGroup, Operation: opSchedulingRun})
	assert.Equal(t, []string{"first:grp-1", "third:scheduling.run"}, got)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 2, n.Subscribers())

	got = nil
	n.Publish(models.ChangeNotice{GroupID: testGroup})
	assert.Equal(t, []string{"first:grp-1"}, got)
}

func TestChangeNotifierRemembersLastChangePerGroup(t *testing.T) {
	n := NewChangeNotifier(nil)
	_, err := n.LastChange(context.Background(), testGroup)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	n.Publish(models.ChangeNotice{GroupID: testGroup, Operation: opSchedulingRun})
	n.Publish(models.ChangeNotice{GroupID: "grp-2", Operation: "calendar.add"})
	n.Publish(models.ChangeNotice{GroupID: testGroup, Operation: "approvals.sweep"})

	last, err := n.LastChange(context.Background(), testGroup)
	require.NoError(t, err)
	assert.Equal(t, "approvals.sweep", last.Operation)

	other, err := n.LastChange(context.Background(), "grp-2")
	require.NoError(t, err)
	assert.Equal(t, "calendar.add", other.Operation)
}
