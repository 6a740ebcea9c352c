package events

// OrderPayload describes an order lifecycle change. CustomerID, when set,
// triggers direct per-user delivery so the affected customer is never missed.
type OrderPayload struct {
	OrderID        string  `json:"orderId"`
	CustomerID     string  `json:"customerId,omitempty"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previousStatus,omitempty"`
	Total          float64 `json:"total,omitempty"`
}

// InventoryPayload describes a stock level change. NewStock drives the
// low-stock / out-of-stock cascade in the broadcast router.
type InventoryPayload struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName,omitempty"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
}

// StockAlertPayload is the secondary alert derived from an inventory update.
type StockAlertPayload struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	NewStock    int    `json:"newStock"`
	Severity    string `json:"severity,omitempty"`
}

// PricePayload describes a price change.
type PricePayload struct {
	ProductID string  `json:"productId"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
	Currency  string  `json:"currency,omitempty"`
}

// ProductPayload describes a non-price product update.
type ProductPayload struct {
	ProductID string         `json:"productId"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// PaymentPayload describes a payment result. CustomerID, when set, triggers
// direct per-user delivery.
type PaymentPayload struct {
	PaymentID  string  `json:"paymentId"`
	OrderID    string  `json:"orderId,omitempty"`
	CustomerID string  `json:"customerId,omitempty"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
}

// AnnouncementPayload is a broadcast system announcement.
type AnnouncementPayload struct {
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

// Stock thresholds for the inventory cascade.
const (
	StockCriticalMax = 5
	StockLowMax      = 10
)

// StockSeverity classifies a stock level for the low-stock alert.
// Returns "" when the level warrants no alert.
func StockSeverity(newStock int) string {
	switch {
	case newStock <= 0:
		return ""
	case newStock <= StockCriticalMax:
		return "critical"
	case newStock <= StockLowMax:
		return "low"
	default:
		return ""
	}
}
