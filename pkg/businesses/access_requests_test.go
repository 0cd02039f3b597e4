package businesses

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/platinummonkey/brandhub/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessRequestColumns() []string {
	return []string{
		"id", "business_id", "user_id", "requested_role", "message", "status",
		"reviewed_by", "reviewed_at", "created_at", "updated_at",
	}
}

func TestCreateAccessRequest(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	t.Run("stranger requests editor access", func(t *testing.T) {
		now := time.Now()

		expectOwnerLookup(mock, 7, 1)
		// membership check: not a member
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(42)).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery(`INSERT INTO business_access_requests`).
			WithArgs(int64(7), int64(42), roles.RoleEditor, "please", AccessRequestPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int64(21), now, now))

		request, err := service.CreateAccessRequest(7, 42, &AccessRequestInput{
			RequestedRole: roles.RoleEditor,
			Message:       " please ",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(21), request.ID)
		assert.Equal(t, AccessRequestPending, request.Status)
		assert.Equal(t, "please", request.Message)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin role cannot be requested", func(t *testing.T) {
		_, err := service.CreateAccessRequest(7, 42, &AccessRequestInput{RequestedRole: roles.RoleAdmin})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("owner cannot request access to their own business", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)

		_, err := service.CreateAccessRequest(7, 1, &AccessRequestInput{RequestedRole: roles.RoleViewer})
		assert.ErrorIs(t, err, ErrValidation)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing member cannot request access", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("viewer"))

		_, err := service.CreateAccessRequest(7, 5, &AccessRequestInput{RequestedRole: roles.RoleEditor})
		assert.ErrorIs(t, err, ErrValidation)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate pending request", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(42)).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery(`INSERT INTO business_access_requests`).
			WithArgs(int64(7), int64(42), roles.RoleViewer, "", AccessRequestPending).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := service.CreateAccessRequest(7, 42, &AccessRequestInput{RequestedRole: roles.RoleViewer})
		assert.ErrorIs(t, err, ErrDuplicateAccessRequest)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListAccessRequests(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	t.Run("manager sees requests newest first", func(t *testing.T) {
		now := time.Now()

		expectOwnerLookup(mock, 7, 1)
		mock.ExpectQuery(`FROM business_access_requests r`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(append(accessRequestColumns(), "username")).
				AddRow(22, 7, 43, "viewer", sql.NullString{}, "pending", nil, nil, now, now, "newer").
				AddRow(21, 7, 42, "editor", "please", "approved", int64(1), now, now.Add(-time.Hour), now, "older"))

		requests, err := service.ListAccessRequests(7, 1)
		require.NoError(t, err)
		require.Len(t, requests, 2)
		assert.Equal(t, "newer", requests[0].Username)
		assert.Equal(t, "", requests[0].Message)
		assert.Equal(t, AccessRequestApproved, requests[1].Status)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("editor is denied", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectQuery(`SELECT role FROM business_members`).
			WithArgs(int64(7), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("editor"))

		_, err := service.ListAccessRequests(7, 3)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewAccessRequest(t *testing.T) {
	service, mock, db := newMockService(t)
	defer db.Close()

	pendingRow := func(status string) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(accessRequestColumns()).
			AddRow(21, 7, 42, "editor", "please", status, nil, nil, now, now)
	}

	t.Run("approval adds the member in the same transaction", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(int64(21), int64(7)).
			WillReturnRows(pendingRow("pending"))
		mock.ExpectExec(`INSERT INTO business_members`).
			WithArgs(int64(7), int64(42), roles.RoleEditor, int64(1)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`UPDATE business_access_requests`).
			WithArgs(AccessRequestApproved, int64(1), sqlmock.AnyArg(), int64(21)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		request, err := service.ReviewAccessRequest(7, 21, 1, ReviewApprove)
		require.NoError(t, err)
		assert.Equal(t, AccessRequestApproved, request.Status)
		require.NotNil(t, request.ReviewedBy)
		assert.Equal(t, int64(1), *request.ReviewedBy)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejection never touches memberships", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(int64(21), int64(7)).
			WillReturnRows(pendingRow("pending"))
		mock.ExpectExec(`UPDATE business_access_requests`).
			WithArgs(AccessRequestRejected, int64(1), sqlmock.AnyArg(), int64(21)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		request, err := service.ReviewAccessRequest(7, 21, 1, ReviewReject)
		require.NoError(t, err)
		assert.Equal(t, AccessRequestRejected, request.Status)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already reviewed", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(int64(21), int64(7)).
			WillReturnRows(pendingRow("rejected"))
		mock.ExpectRollback()

		_, err := service.ReviewAccessRequest(7, 21, 1, ReviewApprove)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid decision", func(t *testing.T) {
		_, err := service.ReviewAccessRequest(7, 21, 1, ReviewDecision("maybe"))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown request", func(t *testing.T) {
		expectOwnerLookup(mock, 7, 1)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(int64(99), int64(7)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.ReviewAccessRequest(7, 99, 1, ReviewApprove)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
