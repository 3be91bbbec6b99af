package mongostore

import (
	"time"

	"flashtans/internal/domain"
)

// Имена полей совпадают с прежними документами (created_at, customer_id, items.product_id),
// поэтому уже существующие данные читаются без миграции.

type productDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Price       float64   `bson:"price"`
	Description string    `bson:"description"`
	Image       string    `bson:"image"`
	Stock       int64     `bson:"stock"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type customerDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Address   string    `bson:"address"`
	CreatedAt time.Time `bson:"created_at"`
}

type orderLineDoc struct {
	ProductID   string  `bson:"product_id"`
	ProductName string  `bson:"product_name"`
	Price       float64 `bson:"price"`
	Quantity    int64   `bson:"quantity"`
	Subtotal    float64 `bson:"subtotal"`
}

type orderDoc struct {
	ID         string         `bson:"_id"`
	CustomerID string         `bson:"customer_id"`
	Total      float64        `bson:"total"`
	Status     string         `bson:"status"`
	Items      []orderLineDoc `bson:"items"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

func toProductDoc(p domain.Product) productDoc {
	return productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDoc) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Image:       d.Image,
		Stock:       d.Stock,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func toCustomerDoc(c domain.Customer) customerDoc {
	return customerDoc{ID: c.ID, Name: c.Name, Email: c.Email, Address: c.Address, CreatedAt: c.CreatedAt}
}

func (d customerDoc) toDomain() domain.Customer {
	return domain.Customer{ID: d.ID, Name: d.Name, Email: d.Email, Address: d.Address, CreatedAt: d.CreatedAt.UTC()}
}

func toOrderDoc(o domain.Order) orderDoc {
	d := orderDoc{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Total:      o.Total,
		Status:     string(o.Status),
		Items:      make([]orderLineDoc, 0, len(o.Items)),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, l := range o.Items {
		d.Items = append(d.Items, orderLineDoc(l))
	}
	return d
}

func (d orderDoc) toDomain() domain.Order {
	o := domain.Order{
		ID:         d.ID,
		CustomerID: d.CustomerID,
		Total:      d.Total,
		Status:     domain.OrderStatus(d.Status),
		Items:      make([]domain.OrderLine, 0, len(d.Items)),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
	for _, l := range d.Items {
		o.Items = append(o.Items, domain.OrderLine(l))
	}
	return o
}
