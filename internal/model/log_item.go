package model

// LogItem is one line of an itemized financial log. It is owned by its
// parent log and removed together with it.
type LogItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	LogID     uint    `json:"log_id" gorm:"index;not null"`
	ItemName  string  `json:"item_name" gorm:"type:varchar(255);not null"`
	Quantity  float64 `json:"quantity" gorm:"type:numeric(10,2);default:1;not null"`
	UnitPrice float64 `json:"unit_price" gorm:"type:numeric(20,2);not null"`
	SubTotal  float64 `json:"sub_total" gorm:"type:numeric(20,2);not null"`
}
