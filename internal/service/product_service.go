package service

import (
	"context"
	"errors"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг каталога
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// SampleProducts стартовый каталог для пустой базы
var SampleProducts = []domain.Product{
	{Name: "Buckets", Price: 29.99, Description: "Amazon S3 Buckets for scalable storage", Stock: 50},
	{Name: "Load Balancers", Price: 34.99, Description: "Customizable load balancers for your applications", Stock: 30},
	{Name: "Microsoft Azure", Price: 24.99, Description: "Cloud computing services for building, testing, and deploying applications", Stock: 25},
}

func (s *ProductService) Create(ctx context.Context, in domain.NewProduct) (*domain.Product, error) {
	if err := domain.ValidateNewProduct(in); err != nil {
		return nil, err
	}
	p := domain.Product{
		Name:        in.Name,
		Price:       *in.Price,
		Description: in.Description,
		Image:       in.Image,
		Stock:       *in.Stock,
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, domain.Persistence("create product", err)
	}
	return &p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.Invalid("product id is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productErr("get product", id, err)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return productErr("delete product", id, err)
	}
	return nil
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	return list, nil
}

// SeedIfEmpty добавляет SampleProducts, только если каталог пуст; возвращает число добавленных
func (s *ProductService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, domain.Persistence("count products", err)
	}
	if n > 0 {
		return 0, nil
	}
	for i, sample := range SampleProducts {
		p := sample
		if err := s.repo.Create(ctx, &p); err != nil {
			return i, domain.Persistence("seed products", err)
		}
	}
	return len(SampleProducts), nil
}

func productErr(op, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.NotFoundError{Entity: "Product", ID: id}
	}
	return domain.Persistence(op, err)
}
