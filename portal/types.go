package portal

import (
	"encoding/json"
	"time"
)

// User holds the user record returned by the login and refresh endpoints.
type User struct {
	ID            int     `json:"id"`
	Email         string  `json:"email"`
	Role          int     `json:"role"`
	Name          *string `json:"name"`
	DistributorID *int    `json:"distributorId"`
	InstallerID   *int    `json:"installerId"`
	AssetOwnerID  int     `json:"assetOwnerId"`
}

// FlowerHubStatus is the hub status reported with an asset. UpdatedAt is set
// client-side when the asset fetch succeeds; the portal does not timestamp it.
type FlowerHubStatus struct {
	Status    string
	Message   string
	UpdatedAt time.Time
}

// Age returns how long ago the status was recorded. The second return value
// is false when the status has never been updated.
func (s FlowerHubStatus) Age() (time.Duration, bool) {
	if s.UpdatedAt.IsZero() {
		return 0, false
	}
	return time.Since(s.UpdatedAt), true
}

// Inverter describes the inverter installed with an asset.
type Inverter struct {
	ManufacturerID                 int    `json:"manufacturerId"`
	ManufacturerName               string `json:"manufacturerName"`
	InverterModelID                int    `json:"inverterModelId"`
	Name                           string `json:"name"`
	NumberOfBatteryStacksSupported int    `json:"numberOfBatteryStacksSupported"`
	CapacityID                     int    `json:"capacityId"`
	PowerCapacity                  int    `json:"powerCapacity"`
}

// Battery describes the battery installed with an asset.
type Battery struct {
	ManufacturerID            int    `json:"manufacturerId"`
	ManufacturerName          string `json:"manufacturerName"`
	BatteryModelID            int    `json:"batteryModelId"`
	Name                      string `json:"name"`
	MinNumberOfBatteryModules int    `json:"minNumberOfBatteryModules"`
	MaxNumberOfBatteryModules int    `json:"maxNumberOfBatteryModules"`
	CapacityID                int    `json:"capacityId"`
	EnergyCapacity            int    `json:"energyCapacity"`
	PowerCapacity             int    `json:"powerCapacity"`
}

// Asset is the hardware record returned by GET /asset/{id}.
type Asset struct {
	ID          int
	Inverter    Inverter
	Battery     Battery
	FuseSize    int
	Status      FlowerHubStatus
	IsInstalled bool
}

// SimpleInstaller is the minimal installer reference on owner details.
type SimpleInstaller struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
}

// SimpleDistributor is the minimal distributor reference on owner details.
type SimpleDistributor struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
}

// AssetModel identifies an asset model and its manufacturer.
type AssetModel struct {
	ID           *int    `json:"id"`
	Name         *string `json:"name"`
	Manufacturer *string `json:"manufacturer"`
}

// AssetInfo is the asset summary embedded in owner details.
type AssetInfo struct {
	ID           *int       `json:"id"`
	SerialNumber *string    `json:"serialNumber"`
	AssetModel   AssetModel `json:"assetModel"`
}

// Compensation is the BESS compensation state on owner details.
type Compensation struct {
	Status  *string `json:"status"`
	Message *string `json:"message"`
}

// AssetOwnerDetails mirrors the response of GET /asset-owner/{id}.
type AssetOwnerDetails struct {
	ID                        int               `json:"id"`
	FirstName                 *string           `json:"firstName"`
	LastName                  *string           `json:"lastName"`
	Installer                 SimpleInstaller   `json:"installer"`
	Distributor               SimpleDistributor `json:"distributor"`
	Asset                     AssetInfo         `json:"asset"`
	Compensation              Compensation      `json:"compensation"`
	BESSCompensationStartDate *string           `json:"bessCompensationStartDate"`
}

// PostalAddress is a street address on profiles and installers.
type PostalAddress struct {
	Street     *string `json:"street"`
	PostalCode *string `json:"postalCode"`
	City       *string `json:"city"`
}

// InstallerInfo is the installer block on an owner profile.
type InstallerInfo struct {
	ID      *int          `json:"id"`
	Name    *string       `json:"name"`
	Address PostalAddress `json:"address"`
}

// AssetOwnerProfile mirrors the response of GET /asset-owner/{id}/profile.
type AssetOwnerProfile struct {
	ID            int           `json:"id"`
	FirstName     *string       `json:"firstName"`
	LastName      *string       `json:"lastName"`
	MainEmail     *string       `json:"mainEmail"`
	ContactEmail  *string       `json:"contactEmail"`
	Phone         *string       `json:"phone"`
	Address       PostalAddress `json:"address"`
	AccountStatus *string       `json:"accountStatus"`
	Installer     InstallerInfo `json:"installer"`
}

// AgreementState is the per-site state of an electricity agreement.
type AgreementState struct {
	StateCategory   *string `json:"stateCategory"`
	StateID         *int    `json:"stateId"`
	SiteID          *int    `json:"siteId"`
	StartDate       *string `json:"startDate"`
	TerminationDate *string `json:"terminationDate"`
}

// ElectricityAgreement covers the consumption and production sites of an
// asset owner. Either side may be absent.
type ElectricityAgreement struct {
	Consumption *AgreementState `json:"consumption"`
	Production  *AgreementState `json:"production"`
}

// InvoiceLine is a single invoice line item.
type InvoiceLine struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       string          `json:"price"`
	Volume      string          `json:"volume"`
	Amount      string          `json:"amount"`
	Settlements json.RawMessage `json:"settlements"`
}

// Invoice is an invoice record, optionally carrying sub group invoices.
// The portal reports monetary values as strings.
type Invoice struct {
	ID                     string        `json:"id"`
	DueDate                *string       `json:"due_date"`
	OCR                    *string       `json:"ocr"`
	InvoiceStatus          *string       `json:"invoice_status"`
	InvoiceHasSettlements  *string       `json:"invoice_has_settlements"`
	InvoiceStatusID        *string       `json:"invoice_status_id"`
	InvoiceCreateDate      *string       `json:"invoice_create_date"`
	InvoicedMonth          *string       `json:"invoiced_month"`
	InvoicePeriod          *string       `json:"invoice_period"`
	InvoiceDate            *string       `json:"invoice_date"`
	TotalAmount            *string       `json:"total_amount"`
	RemainingAmount        *string       `json:"remaining_amount"`
	InvoiceLines           []InvoiceLine `json:"invoice_lines"`
	InvoicePDF             *string       `json:"invoice_pdf"`
	InvoiceTypeID          *string       `json:"invoice_type_id"`
	InvoiceType            *string       `json:"invoice_type"`
	ClaimStatus            *string       `json:"claim_status"`
	ClaimReminderPDF       *string       `json:"claim_reminder_pdf"`
	SiteID                 *string       `json:"site_id"`
	SubGroupInvoices       []Invoice     `json:"sub_group_invoices"`
	CurrentPaymentTypeID   *string       `json:"current_payment_type_id"`
	CurrentPaymentTypeName *string       `json:"current_payment_type_name"`
}

// ConsumptionRecord is one consumption history entry, either a meter reading
// or a calculated value.
type ConsumptionRecord struct {
	SiteID        string   `json:"site_id"`
	ValidFrom     string   `json:"valid_from"`
	ValidTo       *string  `json:"valid_to"`
	InvoicedMonth string   `json:"invoiced_month"`
	Volume        *float64 `json:"volume"`
	Type          string   `json:"type"`
	TypeID        *int     `json:"type_id"`
}

// UptimeMonth is one selectable month for uptime reporting, with a
// machine-readable value (YYYY-MM) and a human label.
type UptimeMonth struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UptimeHistoryEntry is the uptime percentage for a single month.
type UptimeHistoryEntry struct {
	Date   string   `json:"date"`
	Uptime *float64 `json:"uptime"`
}

// UptimePieSlice is one labeled duration bucket of an uptime distribution.
// Name is one of "uptime", "downtime" or "noData"; Value is seconds.
type UptimePieSlice struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// Revenue is the compensation summary of the last invoice of an asset,
// mirroring GET /asset/{id}/revenue.
type Revenue struct {
	ID                *int     `json:"id"`
	MinAvailablePower *float64 `json:"minAvailablePower"`
	Compensation      *float64 `json:"compensation"`
	CompensationPerKW *float64 `json:"compensationPerKW"`
}
