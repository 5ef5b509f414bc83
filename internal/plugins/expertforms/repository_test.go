package expertforms

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var formCols = []string{"id", "name", "email", "phone", "question", "topic", "is_handled", "handled_by", "handled_at", "created_at"}

func TestRepository_ListAttachesReplies(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM expert_forms ORDER BY created_at DESC`)).
		WillReturnRows(sqlmock.NewRows(formCols).
			AddRow("f2", "B", "b@x.io", "1", "q2", "t", false, nil, nil, now).
			AddRow("f1", "A", "a@x.io", "1", "q1", "t", true, "admin-1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM expert_form_replies ORDER BY replied_at ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "form_id", "message", "replied_by", "replied_at"}).
			AddRow("r1", "f1", "hi", "admin-1", now))

	forms, err := NewFormRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, forms, 2)
	require.Empty(t, forms[0].Replies)
	require.NotNil(t, forms[0].Replies)
	require.Len(t, forms[1].Replies, 1)
	require.Equal(t, "admin-1", *forms[1].HandledBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddReplyIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	admin := "admin-1"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO expert_form_replies`)).
		WithArgs("r1", "f1", "hi", "admin-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE expert_forms SET is_handled = TRUE, handled_by = ?, handled_at = ? WHERE id = ?`)).
		WithArgs("admin-1", now, "f1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewFormRepository(db).AddReply(context.Background(), &Reply{
		ID: "r1", FormID: "f1", Message: "hi", RepliedBy: &admin, RepliedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
