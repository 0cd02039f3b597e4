package businesses

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/platinummonkey/brandhub/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePermission(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	t.Run("owner gets every capability", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		perm, err := service.ResolvePermission(1, 7)
		require.NoError(t, err)
		assert.Equal(t, roles.RoleOwner, perm.Role)
		assert.True(t, perm.CanView)
		assert.True(t, perm.CanEdit)
		assert.True(t, perm.CanManageTeam)
		assert.True(t, perm.CanDelete)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("member gets role capabilities", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("editor"))

		perm, err := service.ResolvePermission(3, 7)
		require.NoError(t, err)
		assert.Equal(t, roles.RoleEditor, perm.Role)
		assert.True(t, perm.CanView)
		assert.True(t, perm.CanEdit)
		assert.False(t, perm.CanManageTeam)
		assert.False(t, perm.CanDelete)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-member gets all-false row, not an error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(42)).
			WillReturnError(sql.ErrNoRows)

		perm, err := service.ResolvePermission(42, 7)
		require.NoError(t, err)
		assert.False(t, perm.CanView)
		assert.False(t, perm.CanEdit)
		assert.False(t, perm.CanManageTeam)
		assert.False(t, perm.CanDelete)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing business is an error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		perm, err := service.ResolvePermission(1, 99)
		assert.Nil(t, perm)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
