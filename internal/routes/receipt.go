package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-system/internal/controllers"
)

func runReceiptRouter(
	g *echo.Group,
	receiptCtrl *controllers.ReceiptController,
	borrowCtrl *controllers.BorrowController,
	transferCtrl *controllers.TransferController,
	liquidationCtrl *controllers.LiquidationController,
	importCtrl *controllers.ImportController,
) {
	// Общие операции для всех типов накладных
	g.GET("/receipts", receiptCtrl.GetReceipts)
	g.GET("/receipts/:id", receiptCtrl.FindReceipt)
	g.POST("/receipts/:id/approve", receiptCtrl.Approve)
	g.POST("/receipts/:id/reject", receiptCtrl.Reject)

	// Выдача: групповые позиции, привязка сканированием
	g.POST("/receipts/borrow", borrowCtrl.CreateBorrowReceipt)
	g.POST("/receipts/:id/scan-in", borrowCtrl.ScanIn)
	g.POST("/receipts/:id/scan-out", borrowCtrl.ScanOut)
	g.POST("/receipts/:id/return", borrowCtrl.MarkReturned)

	// Перемещение и списание: конкретные серийные номера
	g.POST("/receipts/transfer", transferCtrl.CreateTransferReceipt)
	g.POST("/receipts/:id/transfer", transferCtrl.MarkTransferred)
	g.POST("/receipts/liquidation", liquidationCtrl.CreateLiquidationReceipt)
	g.POST("/receipts/:id/liquidate", liquidationCtrl.MarkLiquidated)

	// Приход: единственный источник новых единиц
	g.POST("/receipts/import", importCtrl.CreateImportReceipt)
	g.POST("/receipts/import/parse-file", importCtrl.ParseFile)
	g.POST("/receipts/:id/receive", importCtrl.Receive)
}
