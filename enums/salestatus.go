package enums

type SaleStatus string

const (
	SaleStatusForSale  SaleStatus = "for_sale"
	SaleStatusReserved SaleStatus = "reserved"
	SaleStatusSold     SaleStatus = "sold"
	SaleStatusUnknown  SaleStatus = "unknown"
)
