package constants

// --- ТИПЫ НАКЛАДНЫХ ---
const (
	ReceiptTypeBorrow      = "borrow"
	ReceiptTypeTransfer    = "transfer"
	ReceiptTypeLiquidation = "liquidation"
	ReceiptTypeImport      = "import"
)

// --- СТАТУСЫ НАКЛАДНЫХ (совпадает с кодами в БД) ---
const (
	ReceiptStatusRequested   = "requested"
	ReceiptStatusApproved    = "approved"
	ReceiptStatusProcessing  = "processing"
	ReceiptStatusBorrowed    = "borrowed"
	ReceiptStatusReturned    = "returned"
	ReceiptStatusTransferred = "transferred"
	ReceiptStatusLiquidated  = "liquidated"
	ReceiptStatusReceived    = "received"
	ReceiptStatusRejected    = "rejected"
)

// --- СТАТУСЫ ЕДИНИЦ ОБОРУДОВАНИЯ ---
const (
	UnitStatusAvailable       = "available"
	UnitStatusReserved        = "reserved"
	UnitStatusInUse           = "in_use"
	UnitStatusPendingTransfer = "pending_transfer"
	UnitStatusLiquidation     = "liquidation"
)

var AllReceiptTypes = []string{
	ReceiptTypeBorrow,
	ReceiptTypeTransfer,
	ReceiptTypeLiquidation,
	ReceiptTypeImport,
}

// Графы переходов по типам накладных. Движение только вперёд; единственный
// "обратный" переход — rejected из начального статуса.
// approved -> borrowed покрывает накладную из одной единицы: первый скан
// одновременно последний.
var receiptTransitions = map[string]map[string][]string{
	ReceiptTypeBorrow: {
		ReceiptStatusRequested:  {ReceiptStatusApproved, ReceiptStatusRejected},
		ReceiptStatusApproved:   {ReceiptStatusProcessing, ReceiptStatusBorrowed},
		ReceiptStatusProcessing: {ReceiptStatusBorrowed},
		ReceiptStatusBorrowed:   {ReceiptStatusReturned},
	},
	ReceiptTypeTransfer: {
		ReceiptStatusRequested: {ReceiptStatusApproved, ReceiptStatusRejected},
		ReceiptStatusApproved:  {ReceiptStatusTransferred},
	},
	ReceiptTypeLiquidation: {
		ReceiptStatusRequested: {ReceiptStatusApproved, ReceiptStatusRejected},
		ReceiptStatusApproved:  {ReceiptStatusLiquidated},
	},
	ReceiptTypeImport: {
		ReceiptStatusRequested: {ReceiptStatusApproved, ReceiptStatusRejected},
		ReceiptStatusApproved:  {ReceiptStatusReceived},
	},
}

// Финальные статусы
var FinalReceiptStatuses = []string{
	ReceiptStatusReturned,
	ReceiptStatusTransferred,
	ReceiptStatusLiquidated,
	ReceiptStatusReceived,
	ReceiptStatusRejected,
}

func CanTransition(receiptType, from, to string) bool {
	graph, ok := receiptTransitions[receiptType]
	if !ok {
		return false
	}
	for _, next := range graph[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsFinalReceiptStatus(code string) bool {
	for _, s := range FinalReceiptStatuses {
		if s == code {
			return true
		}
	}
	return false
}

func IsValidReceiptType(receiptType string) bool {
	for _, t := range AllReceiptTypes {
		if t == receiptType {
			return true
		}
	}
	return false
}

func IsValidUnitStatus(status string) bool {
	switch status {
	case UnitStatusAvailable, UnitStatusReserved, UnitStatusInUse,
		UnitStatusPendingTransfer, UnitStatusLiquidation:
		return true
	}
	return false
}

// Статус единицы, в который её переводит создание серийной позиции.
func UnitHoldStatusFor(receiptType string) string {
	switch receiptType {
	case ReceiptTypeTransfer:
		return UnitStatusPendingTransfer
	case ReceiptTypeLiquidation:
		return UnitStatusLiquidation
	default:
		return UnitStatusReserved
	}
}
