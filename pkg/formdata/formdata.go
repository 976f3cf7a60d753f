package formdata

import (
	"fmt"
)

// AttributeType identifies the kind of a form field attribute.
type AttributeType string

const (
	TypeAmount            AttributeType = "AMOUNT"
	TypeNote              AttributeType = "NOTE"
	TypeKeyValue          AttributeType = "KEY_VALUE"
	TypeBankAccountChoice AttributeType = "BANK_ACCOUNT_CHOICE"
)

// Attribute is a localizable display attribute with an ID and a resolved value.
type Attribute struct {
	ID    string `json:"id"`
	Value string `json:"value,omitempty"`
}

// FieldAttribute is a typed form field shown to the user during an operation.
// Exactly one of the type-specific value groups is populated based on Type.
type FieldAttribute struct {
	ID   string        `json:"id"`
	Type AttributeType `json:"type"`

	// AMOUNT
	Amount     *Amount `json:"amount,omitempty"`
	CurrencyID string  `json:"currency_id,omitempty"`
	Currency   string  `json:"currency,omitempty"`

	// NOTE
	Note string `json:"note,omitempty"`

	// KEY_VALUE
	Value string `json:"value,omitempty"`

	// BANK_ACCOUNT_CHOICE
	BankAccounts []BankAccount `json:"bank_accounts,omitempty"`
}

// BankAccount describes one selectable account in a BANK_ACCOUNT_CHOICE attribute.
type BankAccount struct {
	Number   string `json:"number"`
	Name     string `json:"name,omitempty"`
	Balance  Amount `json:"balance"`
	Currency string `json:"currency,omitempty"`
}

// FormData represents data visible to the user during an operation plus
// collected responses. Field attributes keep insertion order; re-adding an
// attribute with an existing ID replaces it in place.
type FormData struct {
	Title             *Attribute        `json:"title,omitempty"`
	Message           *Attribute        `json:"message,omitempty"`
	Parameters        []FieldAttribute  `json:"parameters"`
	DynamicDataLoaded bool              `json:"dynamic_data_loaded"`
	UserInput         map[string]string `json:"user_input"`
}

// New creates empty form data.
func New() *FormData {
	return &FormData{
		Parameters: make([]FieldAttribute, 0),
		UserInput:  make(map[string]string),
	}
}

// AddTitle sets the title attribute by ID only, leaving localization to a
// message catalog lookup later.
func (f *FormData) AddTitle(titleID string) {
	f.Title = &Attribute{ID: titleID}
}

// AddLocalizedTitle sets the title attribute with an already resolved text.
func (f *FormData) AddLocalizedTitle(titleID, title string) {
	f.Title = &Attribute{ID: titleID, Value: title}
}

// AddMessage sets the message attribute by ID only.
func (f *FormData) AddMessage(messageID string) {
	f.Message = &Attribute{ID: messageID}
}

// AddLocalizedMessage sets the message attribute with an already resolved text.
func (f *FormData) AddLocalizedMessage(messageID, message string) {
	f.Message = &Attribute{ID: messageID, Value: message}
}

// AddAmount adds or replaces an AMOUNT attribute.
func (f *FormData) AddAmount(id string, amount Amount, currencyID, currency string) {
	f.saveAttribute(FieldAttribute{
		ID:         id,
		Type:       TypeAmount,
		Amount:     &amount,
		CurrencyID: currencyID,
		Currency:   currency,
	})
}

// Amount returns the AMOUNT attribute, or nil if none is present. More than
// one AMOUNT attribute is a programming error and panics.
func (f *FormData) Amount() *FieldAttribute {
	return f.singleAttributeByType(TypeAmount)
}

// AddNote adds or replaces a NOTE attribute.
func (f *FormData) AddNote(id, note string) {
	f.saveAttribute(FieldAttribute{ID: id, Type: TypeNote, Note: note})
}

// Note returns the NOTE attribute, or nil if none is present. More than one
// NOTE attribute is a programming error and panics.
func (f *FormData) Note() *FieldAttribute {
	return f.singleAttributeByType(TypeNote)
}

// AddKeyValue adds or replaces a KEY_VALUE attribute.
func (f *FormData) AddKeyValue(id, value string) {
	f.saveAttribute(FieldAttribute{ID: id, Type: TypeKeyValue, Value: value})
}

// AddBankAccountChoice adds or replaces a BANK_ACCOUNT_CHOICE attribute.
func (f *FormData) AddBankAccountChoice(id string, bankAccounts []BankAccount) {
	f.saveAttribute(FieldAttribute{ID: id, Type: TypeBankAccountChoice, BankAccounts: bankAccounts})
}

// AttributeByID returns the field attribute with the given ID, or nil.
func (f *FormData) AttributeByID(id string) *FieldAttribute {
	for i := range f.Parameters {
		if f.Parameters[i].ID == id {
			return &f.Parameters[i]
		}
	}
	return nil
}

// AttributesByType returns all field attributes of the given type in
// insertion order.
func (f *FormData) AttributesByType(attrType AttributeType) []FieldAttribute {
	var attrs []FieldAttribute
	for _, attr := range f.Parameters {
		if attr.Type == attrType {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// Clone returns a deep copy. Mutating the copy never affects the original,
// including nested bank account lists and the user input map.
func (f *FormData) Clone() *FormData {
	if f == nil {
		return nil
	}
	clone := &FormData{
		DynamicDataLoaded: f.DynamicDataLoaded,
		Parameters:        make([]FieldAttribute, len(f.Parameters)),
		UserInput:         make(map[string]string, len(f.UserInput)),
	}
	if f.Title != nil {
		title := *f.Title
		clone.Title = &title
	}
	if f.Message != nil {
		message := *f.Message
		clone.Message = &message
	}
	for i, attr := range f.Parameters {
		if attr.Amount != nil {
			amount := *attr.Amount
			attr.Amount = &amount
		}
		if attr.BankAccounts != nil {
			accounts := make([]BankAccount, len(attr.BankAccounts))
			copy(accounts, attr.BankAccounts)
			attr.BankAccounts = accounts
		}
		clone.Parameters[i] = attr
	}
	for key, value := range f.UserInput {
		clone.UserInput[key] = value
	}
	return clone
}

// AddUserInput records a user-entered response under the given key.
func (f *FormData) AddUserInput(key, value string) {
	if f.UserInput == nil {
		f.UserInput = make(map[string]string)
	}
	f.UserInput[key] = value
}

func (f *FormData) singleAttributeByType(attrType AttributeType) *FieldAttribute {
	attrs := f.AttributesByType(attrType)
	if len(attrs) == 0 {
		return nil
	}
	if len(attrs) > 1 {
		panic(fmt.Sprintf("multiple attributes of type %s found", attrType))
	}
	return &attrs[0]
}

// saveAttribute adds the attribute, or replaces the existing attribute with
// the same ID in place so parameter order is stable.
func (f *FormData) saveAttribute(attr FieldAttribute) {
	if attr.ID == "" {
		panic("form attribute requires an id")
	}
	for i := range f.Parameters {
		if f.Parameters[i].ID == attr.ID {
			f.Parameters[i] = attr
			return
		}
	}
	f.Parameters = append(f.Parameters, attr)
}
