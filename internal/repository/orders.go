package repository

import (
	"database/sql"
	"fmt"
	"time"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// OrderRepository 订单仓储（PostgreSQL）
type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, toy_id, toy_name, category, rfid_uid, assigned_person, department, total_amount, status, created_at`

// ListOrders 按创建时间倒序返回全部订单（客户端全量刷新用）
func (r *OrderRepository) ListOrders() ([]models.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY created_at DESC`, orderColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// InsertOrder 插入新订单
func (r *OrderRepository) InsertOrder(order *models.Order) error {
	query := `
		INSERT INTO orders (id, toy_id, toy_name, category, rfid_uid, assigned_person, department, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		order.ID,
		order.ToyID,
		order.ToyName,
		order.Category,
		order.RFIDUID,
		order.AssignedPerson,
		order.Department,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// NextPending 返回指定人员最早的待处理订单
// 没有待处理订单时返回 (nil, nil)，这是正常分支而非错误
func (r *OrderRepository) NextPending(assignedPerson string) (*models.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE assigned_person = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT 1`, orderColumns)

	row := r.db.QueryRow(query, assignedPerson, models.StatusPending)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query next pending order: %w", err)
	}
	return &order, nil
}

// MarkDelivered 把订单标记为已送达
func (r *OrderRepository) MarkDelivered(orderID string) error {
	result, err := r.db.Exec(
		`UPDATE orders SET status = $1 WHERE id = $2`,
		models.StatusDelivered, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order delivered: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("order not found: %s", orderID)
	}
	return nil
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (models.Order, error) {
	var order models.Order
	var createdAt time.Time
	err := row.Scan(
		&order.ID,
		&order.ToyID,
		&order.ToyName,
		&order.Category,
		&order.RFIDUID,
		&order.AssignedPerson,
		&order.Department,
		&order.TotalAmount,
		&order.Status,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Order{}, err
		}
		return models.Order{}, fmt.Errorf("failed to scan order: %w", err)
	}
	order.CreatedAt = createdAt
	return order, nil
}
