package types

// DataAPITrade is the raw trade record returned by the Polymarket Data API
// (/trades). Field names follow the API payload; numeric fields arrive as
// JSON numbers or numeric strings depending on endpoint version, so size and
// price are decoded leniently at the adapter boundary.
type DataAPITrade struct {
	TransactionHash string  `json:"transactionHash"`
	ProxyWallet     string  `json:"proxyWallet"`
	ConditionID     string  `json:"conditionId"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"`
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
}
