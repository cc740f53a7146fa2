package booking

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresGetStateMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT state, data_json, updated_at").
		WithArgs("u1", "whatsapp").
		WillReturnError(pgx.ErrNoRows)

	store := newPostgresStoreWithQuerier(mock)
	rec, err := store.GetState(context.Background(), "u1", "whatsapp")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT state, data_json, updated_at").
		WithArgs("u1", "whatsapp").
		WillReturnRows(pgxmock.NewRows([]string{"state", "data_json", "updated_at"}).
			AddRow(StatePhone, []byte(`{"name":"أحمد"}`), now))

	store := newPostgresStoreWithQuerier(mock)
	rec, err := store.GetState(context.Background(), "u1", "whatsapp")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, StatePhone, rec.State)
	assert.Equal(t, "أحمد", rec.Data["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetStateUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO booking_states").
		WithArgs("u1", "whatsapp", StateName, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := newPostgresStoreWithQuerier(mock)
	err = store.SetState(context.Background(), &Record{
		UserID: "u1", Platform: "whatsapp", State: StateName, Data: map[string]string{},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM booking_states").
		WithArgs("u1", "whatsapp").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	store := newPostgresStoreWithQuerier(mock)
	existed, err := store.DeleteState(context.Background(), "u1", "whatsapp")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveTicket(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO booking_tickets").
		WithArgs("BK-1", "u1", "whatsapp", pgxmock.AnyArg(), "pending", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := newPostgresStoreWithQuerier(mock)
	err = store.SaveTicket(context.Background(), &Ticket{
		BookingID: "BK-1", UserID: "u1", Platform: "whatsapp",
		Status: "pending", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
