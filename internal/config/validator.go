package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// ledger ids become NATS subject tokens
var ledgerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("ledger_id", validateLedgerID)
}

func validateLedgerID(fl validator.FieldLevel) bool {
	return ledgerIDPattern.MatchString(fl.Field().String())
}
