package models

import (
	"encoding/json"
	"time"
)

type UnitStatus string

const (
	UnitAvailable  UnitStatus = "AVAILABLE"
	UnitReserved   UnitStatus = "RESERVED"
	UnitSaleAgreed UnitStatus = "SALE_AGREED"
	UnitSold       UnitStatus = "SOLD"
)

type SaleStatus string

const (
	SaleReserved           SaleStatus = "RESERVED"
	SaleContractSent       SaleStatus = "CONTRACT_SENT"
	SaleContractSigned     SaleStatus = "CONTRACT_SIGNED"
	SaleContractsExchanged SaleStatus = "CONTRACTS_EXCHANGED"
	SaleCompleted          SaleStatus = "COMPLETED"
	SaleCancelled          SaleStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s SaleStatus) Terminal() bool {
	return s == SaleCompleted || s == SaleCancelled
}

type SaleType string

const (
	SalePurchase SaleType = "PURCHASE"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

type SelectionStatus string

const (
	SelectionDraft    SelectionStatus = "DRAFT"
	SelectionApproved SelectionStatus = "APPROVED"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Development struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Unit struct {
	ID                   string     `db:"id" json:"id"`
	DevelopmentID        string     `db:"development_id" json:"development_id"`
	Name                 string     `db:"name" json:"name"`
	UnitType             *string    `db:"unit_type" json:"unit_type,omitempty"`
	BasePrice            int64      `db:"base_price" json:"base_price"`
	Status               UnitStatus `db:"status" json:"status"`
	ReservationExpiresAt *time.Time `db:"reservation_expires_at" json:"reservation_expires_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

type CustomizationOption struct {
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

type CustomizationSelection struct {
	ID        string          `db:"id" json:"id"`
	BuyerID   string          `db:"buyer_id" json:"buyer_id"`
	UnitID    string          `db:"unit_id" json:"unit_id"`
	Options   string          `db:"options" json:"-"`
	TotalCost int64           `db:"total_cost" json:"total_cost"`
	Status    SelectionStatus `db:"status" json:"status"`
	SaleID    *string         `db:"sale_id" json:"sale_id,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

func (c CustomizationSelection) DecodeOptions() ([]CustomizationOption, error) {
	if c.Options == "" {
		return nil, nil
	}
	var options []CustomizationOption
	if err := json.Unmarshal([]byte(c.Options), &options); err != nil {
		return nil, err
	}
	return options, nil
}

// SumOptionCosts derives a selection total from its option list. TotalCost
// must always be recomputed through this, never hand-edited.
func SumOptionCosts(options []CustomizationOption) int64 {
	var total int64
	for _, option := range options {
		total += option.Cost
	}
	return total
}

type Sale struct {
	ID                   string     `db:"id" json:"id"`
	Reference            string     `db:"reference" json:"reference"`
	UnitID               string     `db:"unit_id" json:"unit_id"`
	BuyerID              string     `db:"buyer_id" json:"buyer_id"`
	DevelopmentID        string     `db:"development_id" json:"development_id"`
	Type                 SaleType   `db:"sale_type" json:"sale_type"`
	Status               SaleStatus `db:"status" json:"status"`
	Stage                *string    `db:"stage" json:"stage,omitempty"`
	AgreedPrice          int64      `db:"agreed_price" json:"agreed_price"`
	DepositAmount        int64      `db:"deposit_amount" json:"deposit_amount"`
	TotalPaid            int64      `db:"total_paid" json:"total_paid"`
	OutstandingBalance   int64      `db:"outstanding_balance" json:"outstanding_balance"`
	MortgageRequired     bool       `db:"mortgage_required" json:"mortgage_required"`
	MortgageApproved     bool       `db:"mortgage_approved" json:"mortgage_approved"`
	ContractsSent        bool       `db:"contracts_sent" json:"contracts_sent"`
	ContractsSigned      bool       `db:"contracts_signed" json:"contracts_signed"`
	ContractsExchanged   bool       `db:"contracts_exchanged" json:"contracts_exchanged"`
	KYCCompleted         bool       `db:"kyc_completed" json:"kyc_completed"`
	AMLCompleted         bool       `db:"aml_completed" json:"aml_completed"`
	FundsVerified        bool       `db:"funds_verified" json:"funds_verified"`
	CustomizationsLocked bool       `db:"customizations_locked" json:"customizations_locked"`
	ReservedAt           time.Time  `db:"reserved_at" json:"reserved_at"`
	CancelledReason      *string    `db:"cancelled_reason" json:"cancelled_reason,omitempty"`
	CompletedAt          *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID            string        `db:"id" json:"id"`
	SaleID        string        `db:"sale_id" json:"sale_id"`
	Reference     string        `db:"reference" json:"reference"`
	Amount        int64         `db:"amount" json:"amount"`
	SettledAmount *int64        `db:"settled_amount" json:"settled_amount,omitempty"`
	Status        PaymentStatus `db:"status" json:"status"`
	Method        *string       `db:"method" json:"method,omitempty"`
	FailureReason *string       `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
