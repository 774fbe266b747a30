package models

import (
	"sociallink/db"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadges(t *testing.T) {
	setupTest(t)
	admin := createUser(t, "giver", PermissionAdmin)
	u := createUser(t, "getter")

	staff := Badge{Name: "Staff", Color: "#FF0000", IconURL: "https://example.com/staff.png"}
	require.NoError(t, SaveBadge(&staff))
	assert.Equal(t, "#ff0000", staff.Color)
	assert.Error(t, SaveBadge(&Badge{Name: "Bad", Color: "red"}))
	assert.Error(t, SaveBadge(&Badge{Name: " "}))

	staff.Description = "Team member"
	require.NoError(t, SaveBadge(&staff))
	assert.ErrorIs(t, SaveBadge(&Badge{ID: 999, Name: "Ghost"}), ErrNotFound)

	assert.ErrorIs(t, SaveBadge(&Badge{Name: "Staff"}), ErrBadgeExists)
	other := Badge{Name: "Other"}
	require.NoError(t, SaveBadge(&other))
	other.Name = "Staff"
	assert.ErrorIs(t, SaveBadge(&other), ErrBadgeExists)
	require.NoError(t, DeleteBadge(other.ID))

	require.NoError(t, AssignBadge(u.ID, staff.ID, &admin.ID))
	require.NoError(t, AssignBadge(u.ID, staff.ID, &admin.ID), "assigning twice is fine")
	assert.ErrorIs(t, AssignBadge(u.ID, 999, nil), ErrNotFound)

	badges, err := BadgesFor(u.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "Team member", badges[0].Description)

	require.NoError(t, UnassignBadge(u.ID, staff.ID))
	badges, _ = BadgesFor(u.ID)
	assert.Empty(t, badges)

	require.NoError(t, AssignBadge(u.ID, staff.ID, nil))
	require.NoError(t, DeleteBadge(staff.ID))
	badges, _ = BadgesFor(u.ID)
	assert.Empty(t, badges)
	all, _ := ListBadges()
	assert.Empty(t, all)
	assert.ErrorIs(t, DeleteBadge(staff.ID), ErrNotFound)
}

func TestMotd(t *testing.T) {
	setupTest(t)
	m, err := GetMotd()
	require.NoError(t, err)
	assert.Empty(t, m.Message)

	_, err = SetMotd("first", nil)
	require.NoError(t, err)
	_, err = SetMotd("  second  ", nil)
	require.NoError(t, err)

	m, err = GetMotd()
	require.NoError(t, err)
	assert.Equal(t, "second", m.Message)

	var count int64
	require.NoError(t, db.Instance.Model(&Motd{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = SetMotd(string(make([]byte, MaxMotdLength+1)), nil)
	assert.Error(t, err)
}
