package types

import (
	"fmt"
	"regexp"
	"strings"
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// Address is the delivery address snapshot stored on an order. It is
// copied from the customer's address book at checkout so later edits
// cannot change where an in-flight shipment is headed.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
}

// FullName joins the recipient name parts for carrier consignee fields.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Validate checks the fields a shipment cannot be created without.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return fmt.Errorf("address: missing street")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("address: missing state")
	}
	if !pincodePattern.MatchString(a.Pincode) {
		return fmt.Errorf("address: pincode must be 6 digits")
	}
	return nil
}
