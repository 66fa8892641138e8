package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Market identifies which station group a contract belongs to
type Market string

const (
	MarketBoise     Market = "boise"
	MarketTwinFalls Market = "twin-falls"
)

// Valid reports whether m is one of the two configured markets.
func (m Market) Valid() bool {
	return m == MarketBoise || m == MarketTwinFalls
}

// ContractType defines the kind of filing
type ContractType string

const (
	ContractOriginal     ContractType = "Original"
	ContractRevision     ContractType = "Revision"
	ContractCancellation ContractType = "Cancellation"
)

// Valid reports whether t is a known contract type.
func (t ContractType) Valid() bool {
	return t == ContractOriginal || t == ContractRevision || t == ContractCancellation
}

// OrderStatus defines possible order statuses
type OrderStatus string

const (
	OrderStatusFiled OrderStatus = "Filed"
)

// Modification is one entry of an order's append-only change log.
// Entries are immutable once written; list order is chronological.
type Modification struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// SalespersonInfo identifies the salesperson attached at filing time.
type SalespersonInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// Order is the central record: one filed sales contract. The merged PDF in
// Drive is referenced by PDFFileID; exactly one merged PDF exists per record
// and appending pages rewrites that same file object in place.
type Order struct {
	ID             string                          `gorm:"primaryKey;size:36" json:"id"`
	Client         string                          `gorm:"not null;index" json:"client"`
	Agency         string                          `json:"agency"`
	ContractNumber string                          `json:"contractNumber"`
	EstimateNumber string                          `json:"estimateNumber"`
	Stations       datatypes.JSONSlice[string]     `json:"stations"`
	Market         Market                          `gorm:"not null;index" json:"market"`
	ContractType   ContractType                    `gorm:"not null" json:"contractType"`
	Salesperson    *SalespersonInfo                `gorm:"serializer:json" json:"salesperson"`
	FinalFileName  string                          `json:"finalFileName"`
	PDFURL         string                          `json:"pdfUrl"`
	PDFFileID      string                          `gorm:"index" json:"pdfFileId"`
	Status         OrderStatus                     `gorm:"default:Filed" json:"status"`
	OrderEntryDate time.Time                       `gorm:"not null;index" json:"orderEntryDate"`
	Modifications  datatypes.JSONSlice[Modification] `json:"modifications"`
	CreatedAt      time.Time                       `json:"createdAt"`
	UpdatedAt      time.Time                       `json:"updatedAt"`
}

// TableName specifies the table name for the current collection
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns the opaque record ID
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// ArchivedOrder is the same record shape stored in the archived collection.
// It exists so schema migration covers both tables.
type ArchivedOrder struct {
	Order
}

// TableName specifies the table name for the archived collection
func (ArchivedOrder) TableName() string {
	return "archived_orders"
}
