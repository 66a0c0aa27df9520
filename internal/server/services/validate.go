package services

import (
	"fmt"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/go-playground/validator"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateStruct checks s against its validate tags. Failures wrap
// common.ErrValidation.
func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}

func validateNoteID(id string) error {
	if err := validate.Var(id, "required,uuid"); err != nil {
		return fmt.Errorf("%w: invalid note id %q", common.ErrValidation, id)
	}
	return nil
}
