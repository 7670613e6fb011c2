package repository

import (
	"database/sql"
	"testing"
	"time"

	"toytrack/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *OrderRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewOrderRepository(db, logger)

	return db, mock, repo
}

func orderRows(orders ...models.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "toy_id", "toy_name", "category", "rfid_uid",
		"assigned_person", "department", "total_amount", "status", "created_at",
	})
	for _, o := range orders {
		rows.AddRow(o.ID, o.ToyID, o.ToyName, o.Category, o.RFIDUID,
			o.AssignedPerson, o.Department, o.TotalAmount, o.Status, o.CreatedAt)
	}
	return rows
}

func TestListOrders(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT`).WillReturnRows(orderRows(
		models.Order{ID: "2", ToyName: "Doll House", Category: models.CategoryDolls, AssignedPerson: "Jane Roe", Status: models.StatusPending, CreatedAt: now},
		models.Order{ID: "1", ToyName: "Water Blaster", Category: models.CategoryToyGuns, AssignedPerson: "John Marwin", Status: models.StatusDelivered, CreatedAt: now.Add(-time.Hour)},
	))

	orders, err := repo.ListOrders()

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2", orders[0].ID)
	assert.Equal(t, models.CategoryDolls, orders[0].Category)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextPending_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("John Marwin", models.StatusPending).
		WillReturnRows(orderRows(models.Order{
			ID: "7", ToyName: "Water Blaster", Category: models.CategoryToyGuns,
			AssignedPerson: "John Marwin", Status: models.StatusPending, CreatedAt: time.Now(),
		}))

	order, err := repo.NextPending("John Marwin")

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "7", order.ID)
	assert.Equal(t, models.CategoryToyGuns, order.Category)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextPending_NoPendingOrders(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("John Marwin", models.StatusPending).
		WillReturnError(sql.ErrNoRows)

	order, err := repo.NextPending("John Marwin")

	// 无待处理订单是正常分支：nil, nil
	require.NoError(t, err)
	assert.Nil(t, order)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOrder(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	order := &models.Order{
		ID: "new-1", ToyID: "toy-9", ToyName: "RC Buggy", Category: models.CategoryRCCars,
		RFIDUID: "A9 6C 6A 05", AssignedPerson: "John Marwin", Department: "Dispatch",
		TotalAmount: 49.90, Status: models.StatusPending, CreatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(order.ID, order.ToyID, order.ToyName, order.Category, order.RFIDUID,
			order.AssignedPerson, order.Department, order.TotalAmount, order.Status, order.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertOrder(order))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDelivered(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(models.StatusDelivered, "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDelivered("7"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDelivered_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(models.StatusDelivered, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkDelivered("missing")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
