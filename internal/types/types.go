// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, views, storage and roster all import types without depending
// on each other.
package types

// Student is a camper record as the roster and the medical sheet see it.
//
// Struct tags:
//
//  1. json:"..."  keeps the camelCase keys the front-end already sends.
//     Optional fields are pointers with omitempty, so a field that was
//     never provided (nil) stays distinguishable from one provided empty ("").
//
//  2. validate:"..." is checked by go-playground/validator. Only presence
//     of the identity fields is enforced; booleans and amount are left
//     alone because false and 0 are legitimate values.
type Student struct {
	ID            string  `json:"id"   validate:"required"`
	Name          string  `json:"name" validate:"required"`
	DNI           string  `json:"dni"  validate:"required"`
	Paid          bool    `json:"paid"`
	Amount        float64 `json:"amount"`
	CannotPay     bool    `json:"cannotPay"`
	Authorization bool    `json:"authorization"`

	Medication         *string `json:"medication,omitempty"`
	SpecialCare        *string `json:"specialCare,omitempty"`
	HeadacheMedication *string `json:"headacheMedication,omitempty"`
	FeverMedication    *string `json:"feverMedication,omitempty"`
	EmergencyContact   *string `json:"emergencyContact,omitempty"`
}

// HealthSheet is the medical part of a Student, edited by the health form.
type HealthSheet struct {
	Authorization      bool
	Medication         *string
	SpecialCare        *string
	HeadacheMedication *string
	FeverMedication    *string
	EmergencyContact   *string
}

// Health returns the medical part of s.
func (s Student) Health() HealthSheet {
	return HealthSheet{
		Authorization:      s.Authorization,
		Medication:         s.Medication,
		SpecialCare:        s.SpecialCare,
		HeadacheMedication: s.HeadacheMedication,
		FeverMedication:    s.FeverMedication,
		EmergencyContact:   s.EmergencyContact,
	}
}

// WithHealth returns a copy of s with its medical part replaced by h.
func (s Student) WithHealth(h HealthSheet) Student {
	s.Authorization = h.Authorization
	s.Medication = h.Medication
	s.SpecialCare = h.SpecialCare
	s.HeadacheMedication = h.HeadacheMedication
	s.FeverMedication = h.FeverMedication
	s.EmergencyContact = h.EmergencyContact
	return s
}

// StringPtr returns a pointer to v. Handy when filling optional fields.
func StringPtr(v string) *string {
	return &v
}

// Deref returns the value behind p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
