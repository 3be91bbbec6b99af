package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgProductFieldsRequired = "All fields are required"
	MsgOrderFieldsRequired   = "Items and customer info are required"
	msgInvalidLine           = "Each item needs a productId and a positive quantity"
	msgInvalidCustomer       = "Customer name and email are required"
)

// validator кэширует разбор тегов, безопасен для конкурентного использования
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateNewProduct проверяет данные нового товара до любой записи
func ValidateNewProduct(in NewProduct) error {
	verrs, err := check(in)
	if err != nil || verrs == nil {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return Invalid(MsgProductFieldsRequired)
		}
	}
	switch verrs[0].StructField() {
	case "Price":
		return Invalid("Price must be greater than 0")
	case "Stock":
		return Invalid("Stock must not be negative")
	default:
		return Invalid(MsgProductFieldsRequired)
	}
}

// ValidateOrderRequest проверяет запрос на заказ до открытия транзакции
func ValidateOrderRequest(req OrderRequest) error {
	verrs, err := check(req)
	if err != nil || verrs == nil {
		return err
	}
	// top-level absence wins over per-line problems
	for _, fe := range verrs {
		if fe.StructNamespace() == "OrderRequest.Items" || fe.StructNamespace() == "OrderRequest.CustomerInfo" {
			return Invalid(MsgOrderFieldsRequired)
		}
	}
	if strings.HasPrefix(verrs[0].StructNamespace(), "OrderRequest.Items[") {
		return Invalid(msgInvalidLine)
	}
	return Invalid(msgInvalidCustomer)
}

func check(v any) (validator.ValidationErrors, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs, nil
	}
	return nil, Invalid(err.Error())
}
