package models

import "time"

// 订单状态
const (
	StatusPending   = "PENDING"
	StatusDelivered = "DELIVERED"
)

// 玩具分类（封闭枚举，与设备端 LED 输出一一对应）
const (
	CategoryToyGuns = "Toy Guns"
	CategoryDolls   = "Dolls"
	CategoryPuzzles = "Puzzles"
	CategoryRCCars  = "RC Cars"
)

// Order 订单记录（客户端镜像 + 服务端持久化共用同一 JSON 形状）
type Order struct {
	ID             string    `json:"id"`
	ToyID          string    `json:"toy_id"`
	ToyName        string    `json:"toy_name"`
	Category       string    `json:"category"`
	RFIDUID        string    `json:"rfid_uid"`
	AssignedPerson string    `json:"assigned_person"`
	Department     string    `json:"department"`
	TotalAmount    float64   `json:"total_amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}
