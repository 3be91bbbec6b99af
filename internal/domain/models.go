package domain

import "time"

// DefaultProductImage используется, когда при создании товара картинка не указана
const DefaultProductImage = "/images/placeholder.jpg"

// Product товар каталога
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Stock       int64     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Customer контактные данные покупателя, создаётся на каждый заказ
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

// OrderLine снимок позиции заказа: имя и цена копируются в момент оформления
type OrderLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// Order сущность заказа. Customer* поля заполняются при чтении, в заказе не хранятся.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name,omitempty"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	CustomerAddress string      `json:"customer_address,omitempty"`
	Total           float64     `json:"total"`
	Status          OrderStatus `json:"status"`
	Items           []OrderLine `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// UnknownCustomer подставляется, если покупатель заказа не найден
const UnknownCustomer = "Unknown"

// ResolveCustomer копирует отображаемые поля покупателя в заказ
func (o *Order) ResolveCustomer(c *Customer) {
	if c == nil {
		o.CustomerName = UnknownCustomer
		o.CustomerEmail = UnknownCustomer
		o.CustomerAddress = ""
		return
	}
	o.CustomerName = c.Name
	o.CustomerEmail = c.Email
	o.CustomerAddress = c.Address
}

// NewProduct входные данные для создания товара. Указатели отличают "не передано" от нуля.
type NewProduct struct {
	Name        string   `json:"name" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gt=0"`
	Description string   `json:"description" validate:"required"`
	Image       string   `json:"image"`
	Stock       *int64   `json:"stock" validate:"required,gte=0"`
}

// LineRequest запрошенная позиция заказа
type LineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

// CustomerInfo контактные данные из запроса на заказ
type CustomerInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Address string `json:"address"`
}

// OrderRequest запрос на оформление заказа
type OrderRequest struct {
	Items        []LineRequest `json:"items" validate:"required,min=1,dive"`
	CustomerInfo *CustomerInfo `json:"customerInfo" validate:"required"`
}
