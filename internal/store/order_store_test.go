package store

import (
	"testing"

	"toytrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOrderStore_ReplaceAll(t *testing.T) {
	s := NewOrderStore(zap.NewNop())
	s.ReplaceAll([]models.Order{
		{ID: "1", Status: models.StatusPending},
		{ID: "2", Status: models.StatusDelivered},
	})

	assert.Equal(t, 2, s.Len())

	// 全量刷新是整体替换，不是合并
	s.ReplaceAll([]models.Order{{ID: "3", Status: models.StatusPending}})
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("1")
	assert.False(t, ok)
}

func TestOrderStore_ApplyStreamEvent_UpdateInPlace(t *testing.T) {
	s := NewOrderStore(zap.NewNop())
	s.ReplaceAll([]models.Order{
		{ID: "1", Status: models.StatusPending},
		{ID: "7", Status: models.StatusPending},
		{ID: "3", Status: models.StatusPending},
	})

	prev, existed := s.ApplyStreamEvent(models.Order{ID: "7", Status: models.StatusDelivered})

	require.True(t, existed)
	assert.Equal(t, models.StatusPending, prev)
	// 长度不变，位置不变
	assert.Equal(t, 3, s.Len())
	snapshot := s.Snapshot()
	assert.Equal(t, "7", snapshot[1].ID)
	assert.Equal(t, models.StatusDelivered, snapshot[1].Status)
}

func TestOrderStore_ApplyStreamEvent_InsertAtFront(t *testing.T) {
	s := NewOrderStore(zap.NewNop())
	s.ReplaceAll([]models.Order{{ID: "1", Status: models.StatusPending}})

	prev, existed := s.ApplyStreamEvent(models.Order{ID: "9", Status: models.StatusPending})

	assert.False(t, existed)
	assert.Equal(t, "", prev)
	// 未知 id 无条件插入最前（包括首次拉取前到达的事件）
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "9", s.Snapshot()[0].ID)
}

func TestOrderStore_NeverHoldsDuplicateIDs(t *testing.T) {
	s := NewOrderStore(zap.NewNop())

	s.ApplyStreamEvent(models.Order{ID: "1", Status: models.StatusPending})
	s.ApplyStreamEvent(models.Order{ID: "1", Status: models.StatusDelivered})
	s.Prepend(models.Order{ID: "1", Status: models.StatusDelivered})

	assert.Equal(t, 1, s.Len())
}

func TestOrderStore_Prepend(t *testing.T) {
	s := NewOrderStore(zap.NewNop())
	s.ReplaceAll([]models.Order{{ID: "1"}})

	s.Prepend(models.Order{ID: "2", ToyName: "RC Buggy"})

	snapshot := s.Snapshot()
	require.Equal(t, 2, len(snapshot))
	assert.Equal(t, "2", snapshot[0].ID)
}

func TestOrderStore_Clear(t *testing.T) {
	s := NewOrderStore(zap.NewNop())
	s.ReplaceAll([]models.Order{{ID: "1"}, {ID: "2"}})

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Snapshot())
}
