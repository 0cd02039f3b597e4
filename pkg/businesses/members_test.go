package businesses

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/platinummonkey/brandhub/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMembers(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	t.Run("viewer can list; owner profile is separate", func(t *testing.T) {
		now := time.Now()
		invitedBy := int64(1)

		// caller 5 is a viewer member
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("viewer"))

		mock.ExpectQuery(`FROM business_members m`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "business_id", "user_id", "role", "invited_by", "joined_at", "created_at",
				"username", "email", "full_name",
			}).
				AddRow(1, 7, 5, "viewer", invitedBy, now, now, "casey", "casey@example.com", "Casey Lee").
				AddRow(2, 7, 6, "admin", nil, now, now, "jo", sql.NullString{}, sql.NullString{}))

		// owner profile lookup
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`FROM users WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "email", "full_name", "is_active", "created_at", "updated_at",
			}).AddRow(1, "owner", "owner@example.com", "The Owner", true, now, now))

		list, err := service.ListMembers(7, 5)
		require.NoError(t, err)
		require.NotNil(t, list.Owner)
		assert.Equal(t, "owner", list.Owner.Username)
		assert.Len(t, list.Members, 2)
		assert.Equal(t, roles.RoleViewer, list.Members[0].Role)
		assert.Equal(t, "", list.Members[1].Email)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("owner lookup failure degrades to nil owner", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		mock.ExpectQuery(`FROM business_members m`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "business_id", "user_id", "role", "invited_by", "joined_at", "created_at",
				"username", "email", "full_name",
			}).AddRow(1, 7, 5, "viewer", nil, now, now, "casey", "casey@example.com", "Casey Lee"))

		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`FROM users WHERE id`).
			WithArgs(int64(1)).
			WillReturnError(sql.ErrNoRows)

		list, err := service.ListMembers(7, 1)
		require.NoError(t, err)
		assert.Nil(t, list.Owner)
		assert.Len(t, list.Members, 1)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-member is denied", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(42)).
			WillReturnError(sql.ErrNoRows)

		list, err := service.ListMembers(7, 42)
		assert.Nil(t, list)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateMemberRole(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	t.Run("admin changes a member role", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

		mock.ExpectExec(`UPDATE business_members SET role`).
			WithArgs(roles.RoleEditor, int64(7), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := service.UpdateMemberRole(7, 5, roles.RoleEditor, 2)
		require.NoError(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("owner role is not assignable", func(t *testing.T) {
		err := service.UpdateMemberRole(7, 5, roles.RoleOwner, 1)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("owner cannot be a target", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		err := service.UpdateMemberRole(7, 1, roles.RoleViewer, 1)
		assert.ErrorIs(t, err, ErrOwnerImmutable)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("editor cannot manage the team", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("editor"))

		err := service.UpdateMemberRole(7, 5, roles.RoleViewer, 3)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown member", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		mock.ExpectExec(`UPDATE business_members SET role`).
			WithArgs(roles.RoleViewer, int64(7), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := service.UpdateMemberRole(7, 99, roles.RoleViewer, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRemoveMember(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	t.Run("manager removes a member", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

		mock.ExpectExec(`DELETE FROM business_members`).
			WithArgs(int64(7), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, service.RemoveMember(7, 5, 2))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("viewer removes themselves without manage_team", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		// no capability check: straight to the delete
		mock.ExpectExec(`DELETE FROM business_members`).
			WithArgs(int64(7), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, service.RemoveMember(7, 5, 5))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("viewer cannot remove someone else", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("viewer"))

		err := service.RemoveMember(7, 6, 5)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("owner can never be removed, even by themselves", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		err := service.RemoveMember(7, 1, 1)
		assert.ErrorIs(t, err, ErrOwnerImmutable)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown member", func(t *testing.T) {
		mock.ExpectQuery(`SELECT owner_id FROM businesses`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(int64(1)))

		mock.ExpectExec(`DELETE FROM business_members`).
			WithArgs(int64(7), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := service.RemoveMember(7, 99, 99)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
