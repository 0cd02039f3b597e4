package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBRecorderRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recorder, err := NewDBRecorder(db)
	require.NoError(t, err)

	t.Run("records an event and assigns an id", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO team_audit_log`).
			WithArgs(int64(7), int64(1), "invitation.created", "casey@example.com",
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

		event := &Event{
			BusinessID: 7,
			ActorID:    1,
			Action:     EventInvitationCreated,
			Target:     "casey@example.com",
			Detail:     map[string]interface{}{"role": "editor"},
		}
		require.NoError(t, recorder.Record(context.Background(), event))
		assert.Equal(t, int64(100), event.ID)
		assert.False(t, event.CreatedAt.IsZero())

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil detail becomes an empty object", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO team_audit_log`).
			WithArgs(int64(7), int64(1), "member.removed", "", []byte("{}"), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))

		event := &Event{BusinessID: 7, ActorID: 1, Action: EventMemberRemoved}
		require.NoError(t, recorder.Record(context.Background(), event))

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBRecorderList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recorder, err := NewDBRecorder(db)
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery(`FROM team_audit_log`).
		WithArgs(int64(7), 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "business_id", "actor_id", "action", "target", "detail", "created_at",
		}).
			AddRow(101, 7, 1, "member.removed", nil, []byte(`{}`), now).
			AddRow(100, 7, 1, "invitation.created", "casey@example.com", []byte(`{"role":"editor"}`), now.Add(-time.Minute)))

	events, err := recorder.List(context.Background(), 7, 50)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventMemberRemoved, events[0].Action)
	assert.Equal(t, "casey@example.com", events[1].Target)
	assert.Equal(t, "editor", events[1].Detail["role"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDBRecorderRequiresDB(t *testing.T) {
	_, err := NewDBRecorder(nil)
	assert.Error(t, err)
}
