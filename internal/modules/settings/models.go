package settings

const (
	// KeyInvoiceTaxRate is the flat tax rate applied to new and edited
	// invoices, as a fraction (0.08 = 8%).
	KeyInvoiceTaxRate = "invoice_tax_rate"
	// KeyDefaultDueDays is how many days after creation an invoice is due
	// when no due date is given.
	KeyDefaultDueDays = "default_due_days"
)

// SettingDefaults holds the default value of every configurable setting.
// Environment configuration overrides these; stored values override both.
var SettingDefaults = map[string]interface{}{
	KeyInvoiceTaxRate: "0",
	KeyDefaultDueDays: 30.0,
}

// SettingDescriptions documents each setting for the API.
var SettingDescriptions = map[string]string{
	KeyInvoiceTaxRate: "Flat tax rate applied to invoice subtotals (fraction, 0-1)",
	KeyDefaultDueDays: "Days until an invoice is due when no due date is given (0-365)",
}

// SettingUpdate is the body of PUT /api/settings/{key}.
type SettingUpdate struct {
	Value interface{} `json:"value"`
}

// Setting is one entry of GET /api/settings.
type Setting struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Description string      `json:"description"`
	Stored      bool        `json:"stored"`
}
