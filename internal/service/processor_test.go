package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"toytrack/internal/models"
	"toytrack/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStreamPublisher struct {
	payloads [][]byte
	topics   []string
}

func (p *fakeStreamPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func setupProcessor(t *testing.T) (sqlmock.Sqlmock, *fakeStreamPublisher, *OrderProcessor, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := zap.NewNop()
	repo := repository.NewOrderRepository(db, logger)
	publisher := &fakeStreamPublisher{}

	p := NewOrderProcessor(repo, redisClient, publisher, "toytrack/orders", 1, 3*time.Second, logger)
	cleanup := func() { db.Close() }
	return mock, publisher, p, cleanup
}

func pendingOrderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "toy_id", "toy_name", "category", "rfid_uid",
		"assigned_person", "department", "total_amount", "status", "created_at",
	}).AddRow("7", "toy-1", "Water Blaster", models.CategoryToyGuns, "A9 6C 6A 05",
		"John Marwin", "Dispatch", 19.90, models.StatusPending, time.Now())
}

func TestProcessNext_Success(t *testing.T) {
	mock, publisher, p, cleanup := setupProcessor(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT`).
		WithArgs("John Marwin", models.StatusPending).
		WillReturnRows(pendingOrderRows())
	mock.ExpectExec(`UPDATE orders`).
		WithArgs(models.StatusDelivered, "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := p.ProcessNext(context.Background(), "John Marwin")

	require.NoError(t, err)
	assert.Equal(t, models.ActionProcessingSuccess, resp.Action)
	assert.Equal(t, models.CategoryToyGuns, resp.Category)

	// 状态变更广播到了在线流
	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, "toytrack/orders", publisher.topics[0])
	var published models.Order
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &published))
	assert.Equal(t, "7", published.ID)
	assert.Equal(t, models.StatusDelivered, published.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_NoPendingOrders(t *testing.T) {
	mock, publisher, p, cleanup := setupProcessor(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT`).
		WithArgs("Jane Roe", models.StatusPending).
		WillReturnError(sql.ErrNoRows)

	resp, err := p.ProcessNext(context.Background(), "Jane Roe")

	require.NoError(t, err)
	assert.Equal(t, models.ActionNoPendingOrders, resp.Action)
	assert.Empty(t, publisher.payloads)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_DuplicateScanSuppressed(t *testing.T) {
	mock, publisher, p, cleanup := setupProcessor(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT`).
		WithArgs("John Marwin", models.StatusPending).
		WillReturnRows(pendingOrderRows())
	mock.ExpectExec(`UPDATE orders`).
		WithArgs(models.StatusDelivered, "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	first, err := p.ProcessNext(context.Background(), "John Marwin")
	require.NoError(t, err)
	require.Equal(t, models.ActionProcessingSuccess, first.Action)

	// 抑制窗口内的第二次刷卡不查库、不消耗订单
	second, err := p.ProcessNext(context.Background(), "John Marwin")
	require.NoError(t, err)
	assert.Equal(t, models.ActionNoPendingOrders, second.Action)
	assert.Len(t, publisher.payloads, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_EmptyPerson(t *testing.T) {
	_, _, p, cleanup := setupProcessor(t)
	defer cleanup()

	_, err := p.ProcessNext(context.Background(), "")
	assert.Error(t, err)
}

func TestCreateOrder(t *testing.T) {
	mock, publisher, p, cleanup := setupProcessor(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), "toy-9", "RC Buggy", models.CategoryRCCars, "A9 6C 6A 05",
			"John Marwin", "Dispatch", 49.90, models.StatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := p.CreateOrder(context.Background(), models.Order{
		ToyID:          "toy-9",
		ToyName:        "RC Buggy",
		Category:       models.CategoryRCCars,
		RFIDUID:        "A9 6C 6A 05",
		AssignedPerson: "John Marwin",
		Department:     "Dispatch",
		TotalAmount:    49.90,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)

	// 创建事件由发起方客户端广播，服务端不重复发布
	assert.Empty(t, publisher.payloads)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_MissingFields(t *testing.T) {
	_, publisher, p, cleanup := setupProcessor(t)
	defer cleanup()

	_, err := p.CreateOrder(context.Background(), models.Order{ToyName: "RC Buggy"})
	require.Error(t, err)
	assert.Empty(t, publisher.payloads)
}
