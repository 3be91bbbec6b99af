package sqlstore

import (
	"time"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

type productRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"size:255;not null"`
	Price       float64   `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Image       string    `gorm:"size:512"`
	Stock       int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (productRecord) TableName() string { return "products" }

type customerRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;not null"`
	Address   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index;autoCreateTime:false"`
}

func (customerRecord) TableName() string { return "customers" }

type orderRecord struct {
	ID         string            `gorm:"primaryKey;size:36"`
	CustomerID string            `gorm:"size:36;index"`
	Customer   *customerRecord   `gorm:"foreignKey:CustomerID"`
	Total      float64           `gorm:"not null"`
	Status     string            `gorm:"size:32;not null"`
	Items      []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"index;autoCreateTime:false"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime:false"`
}

func (orderRecord) TableName() string { return "orders" }

// orderItemRecord строка order_items; product_id без внешнего ключа, чтобы товар можно было удалить
type orderItemRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	OrderID     string `gorm:"size:36;not null;index"`
	Position    int    `gorm:"not null"`
	ProductID   string `gorm:"size:36;index"`
	ProductName string `gorm:"size:255"`
	Price       float64
	Quantity    int64
	Subtotal    float64
}

func (orderItemRecord) TableName() string { return "order_items" }

func toProductRecord(p domain.Product) productRecord {
	return productRecord{
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

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Image:       r.Image,
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toCustomerRecord(c domain.Customer) customerRecord {
	return customerRecord{ID: c.ID, Name: c.Name, Email: c.Email, Address: c.Address, CreatedAt: c.CreatedAt}
}

func (r customerRecord) toDomain() domain.Customer {
	return domain.Customer{ID: r.ID, Name: r.Name, Email: r.Email, Address: r.Address, CreatedAt: r.CreatedAt.UTC()}
}

func toOrderRecord(o domain.Order) orderRecord {
	rec := orderRecord{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Total:      o.Total,
		Status:     string(o.Status),
		Items:      make([]orderItemRecord, 0, len(o.Items)),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for i, l := range o.Items {
		rec.Items = append(rec.Items, orderItemRecord{
			ID:          repository.NewID(),
			OrderID:     o.ID,
			Position:    i,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Price:       l.Price,
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal,
		})
	}
	return rec
}

func (r orderRecord) toDomain() domain.Order {
	o := domain.Order{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Total:      r.Total,
		Status:     domain.OrderStatus(r.Status),
		Items:      make([]domain.OrderLine, 0, len(r.Items)),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	for _, it := range r.Items {
		o.Items = append(o.Items, domain.OrderLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		})
	}
	if r.Customer != nil {
		c := r.Customer.toDomain()
		o.ResolveCustomer(&c)
	} else {
		o.ResolveCustomer(nil)
	}
	return o
}
