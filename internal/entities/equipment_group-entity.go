package entities

import "time"

// EquipmentGroup — классификация взаимозаменяемых единиц по типу/модели.
// Номинальное количество не хранится: остаток выводится подсчётом единиц
// в статусе available.
type EquipmentGroup struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Room struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
