package models

// ShipmentFields holds the structured fields pulled out of a logistics
// document (rate confirmation, BOL, invoice). Every field is optional;
// nil means the field was not present or could not be extracted.
type ShipmentFields struct {
	ShipmentID       *string  `json:"shipment_id"`
	Shipper          *string  `json:"shipper"`
	Consignee        *string  `json:"consignee"`
	PickupDatetime   *string  `json:"pickup_datetime"`
	DeliveryDatetime *string  `json:"delivery_datetime"`
	EquipmentType    *string  `json:"equipment_type"`
	Mode             *string  `json:"mode"`
	Rate             *float64 `json:"rate"`
	Currency         *string  `json:"currency"`
	Weight           *float64 `json:"weight"`
	CarrierName      *string  `json:"carrier_name"`
}
