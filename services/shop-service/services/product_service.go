package services

import (
	"context"
	"time"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

const ProductImageNamespace = "productImages"

type ProductService struct {
	gateway    docstore.Gateway
	reconciler *Reconciler
	validator  *Validator
	metrics    MetricsRecorder
	logger     *zap.Logger
	now        func() time.Time
}

func NewProductService(gateway docstore.Gateway, reconciler *Reconciler, validator *Validator, metrics MetricsRecorder, logger *zap.Logger) *ProductService {
	return &ProductService{
		gateway:    gateway,
		reconciler: reconciler,
		validator:  validator,
		metrics:    metricsOrNoop(metrics),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.gateway.List(ctx, docstore.Products, &products); err != nil {
		return nil, remoteErr(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.gateway.Get(ctx, docstore.Products, id, &p); err != nil {
		return nil, remoteErr(err)
	}
	return &p, nil
}

func (s *ProductService) NewEditor() *Editor[models.ProductForm, models.Product] {
	return NewEditor[models.ProductForm, models.Product](productBinding{s}, s.reconciler, s.validator, models.ProductForm{})
}

func (s *ProductService) Create(ctx context.Context, form models.ProductForm, images []FileBlob) ([]models.Product, error) {
	ed := s.NewEditor()
	ed.OpenCreate()
	_ = ed.StageFiles(images...)
	return ed.Submit(ctx, form)
}

// Update appends new images and drops the removed refs, keeping the order of
// the images that stay.
func (s *ProductService) Update(ctx context.Context, id string, form models.ProductForm, images []FileBlob, removed []string) ([]models.Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ed := s.NewEditor()
	ed.OpenEdit(id, models.ProductForm{
		Name:        current.Name,
		Price:       current.Price,
		Description: current.Description,
		Category:    current.Category,
	}, current.ImageURLs)
	_ = ed.StageRemoval(removed...)
	_ = ed.StageFiles(images...)
	return ed.Submit(ctx, form)
}

// Delete removes the record first, then its images; image cleanup failures
// are logged by the reconciler.
func (s *ProductService) Delete(ctx context.Context, id string) ([]models.Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Delete(ctx, docstore.Products, id); err != nil {
		return nil, remoteErr(err)
	}
	s.recordWrite(ctx, "delete")

	if _, err := s.reconciler.Reconcile(ctx, ProductImageNamespace, current.ImageURLs, current.ImageURLs, nil); err != nil {
		s.logger.Warn("Product image cleanup failed", zap.String("productID", id), zap.Error(err))
	}
	return s.List(ctx)
}

func (s *ProductService) recordWrite(ctx context.Context, op string) {
	_ = s.metrics.RecordCount(ctx, awspkg.MetricCatalogWrites, map[string]string{
		"Collection": docstore.Products,
		"Operation":  op,
	})
}

type productBinding struct {
	s *ProductService
}

func (b productBinding) Namespace() string { return ProductImageNamespace }
func (b productBinding) SingleImage() bool { return false }

func (b productBinding) Check(context.Context, models.ProductForm) (map[string]string, error) {
	return nil, nil
}

func (b productBinding) Create(ctx context.Context, form models.ProductForm, images []string) error {
	p := models.Product{
		Name:        form.Name,
		Price:       form.Price,
		Description: form.Description,
		Category:    form.Category,
		ImageURLs:   append([]string{}, images...),
		CreatedAt:   b.s.now().UTC(),
	}
	if _, err := b.s.gateway.Create(ctx, docstore.Products, p); err != nil {
		return remoteErr(err)
	}
	b.s.recordWrite(ctx, "create")
	if len(images) > 0 {
		_ = b.s.metrics.RecordValue(ctx, awspkg.MetricImagesUploaded, float64(len(images)), map[string]string{"Collection": docstore.Products})
	}
	return nil
}

func (b productBinding) Update(ctx context.Context, id string, form models.ProductForm, images []string) error {
	err := b.s.gateway.Update(ctx, docstore.Products, id, map[string]interface{}{
		"name":        form.Name,
		"price":       form.Price,
		"description": form.Description,
		"category":    form.Category,
		"image_urls":  append([]string{}, images...),
		"updated_at":  b.s.now().UTC(),
	})
	if err != nil {
		return remoteErr(err)
	}
	b.s.recordWrite(ctx, "update")
	return nil
}

func (b productBinding) List(ctx context.Context) ([]models.Product, error) {
	return b.s.List(ctx)
}
