package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/termovis/server/pkg/polygon"
)

// validatorPolygon проверяет, что строковое поле разбирается кодеком
// полигонов. Пустая строка корректна (полигон не записан)
func validatorPolygon(fl validator.FieldLevel) bool {
	_, err := polygon.FromString(fl.Field().String())
	return err == nil
}
