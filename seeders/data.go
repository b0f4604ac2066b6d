package seeders

// Справочные данные для первоначального наполнения БД.

type groupData struct {
	Code string
	Name string
}

type roomData struct {
	Name     string
	IsActive bool
}

var equipmentGroups = []groupData{
	{Code: "LAPTOP", Name: "Ноутбуки"},
	{Code: "MONITOR", Name: "Мониторы"},
	{Code: "PRINTER", Name: "Принтеры"},
	{Code: "PROJECTOR", Name: "Проекторы"},
	{Code: "SCANNER", Name: "Сканеры штрих-кодов"},
}

var rooms = []roomData{
	{Name: "Склад №1", IsActive: true},
	{Name: "Склад №2", IsActive: true},
	{Name: "Офис 301", IsActive: true},
	{Name: "Архив (закрыт)", IsActive: false},
}

// Сколько единиц каждой группы создать на первом складе.
var unitsPerGroup = map[string]int{
	"LAPTOP":    10,
	"MONITOR":   15,
	"PRINTER":   5,
	"PROJECTOR": 3,
	"SCANNER":   8,
}
