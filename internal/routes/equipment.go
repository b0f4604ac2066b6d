package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-system/internal/controllers"
)

func runEquipmentRouter(g *echo.Group, equipmentCtrl *controllers.EquipmentController) {
	g.GET("/equipment", equipmentCtrl.GetUnits)
	g.GET("/equipment/:serial", equipmentCtrl.FindUnit)
	g.GET("/equipment-groups", equipmentCtrl.GetGroups)
	g.GET("/equipment-groups/:code/availability", equipmentCtrl.GetGroupAvailability)
}
