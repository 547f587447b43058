package domain

import (
	"strconv"
	"strings"
)

// AccountMode is the settlement channel of an account
type AccountMode string

const (
	AccountBank  AccountMode = "BANK"
	AccountCash  AccountMode = "CASH"
	AccountUPI   AccountMode = "UPI"
	AccountOther AccountMode = "OTHER"
)

// ParseAccountMode accepts any case; unknown modes are a validation failure
func ParseAccountMode(s string) (AccountMode, error) {
	switch m := AccountMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case AccountBank, AccountCash, AccountUPI, AccountOther:
		return m, nil
	case "":
		return AccountOther, nil
	default:
		return "", Validationf("unknown account mode %q", s)
	}
}

// Account is a named settlement channel used to tag collections
type Account struct {
	ID   int64       `json:"id"`
	Name string      `json:"name"`
	Mode AccountMode `json:"mode"`
}

// AccountKey renders an optional account id in canonical string form ("" for none)
func AccountKey(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
