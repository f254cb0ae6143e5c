package services

import (
	"context"
	"strings"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

const PackageImageNamespace = "packages"

// PackageService owns the packages and teams collections: admin writes go
// through an Editor, reads serve the booking catalog.
type PackageService struct {
	gateway    docstore.Gateway
	reconciler *Reconciler
	validator  *Validator
	metrics    MetricsRecorder
	logger     *zap.Logger
}

func NewPackageService(gateway docstore.Gateway, reconciler *Reconciler, validator *Validator, metrics MetricsRecorder, logger *zap.Logger) *PackageService {
	return &PackageService{
		gateway:    gateway,
		reconciler: reconciler,
		validator:  validator,
		metrics:    metricsOrNoop(metrics),
		logger:     logger,
	}
}

func (s *PackageService) List(ctx context.Context) ([]models.Package, error) {
	var pkgs []models.Package
	if err := s.gateway.List(ctx, docstore.Packages, &pkgs); err != nil {
		return nil, remoteErr(err)
	}
	if pkgs == nil {
		pkgs = []models.Package{}
	}
	return pkgs, nil
}

// ListByTeam filters by exact team name; "" and "All" return everything.
func (s *PackageService) ListByTeam(ctx context.Context, team string) ([]models.Package, error) {
	pkgs, err := s.List(ctx)
	if err != nil || team == "" || team == models.TeamFilterAll {
		return pkgs, err
	}
	out := make([]models.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PackageService) Get(ctx context.Context, id string) (*models.Package, error) {
	var p models.Package
	if err := s.gateway.Get(ctx, docstore.Packages, id, &p); err != nil {
		return nil, remoteErr(err)
	}
	return &p, nil
}

func (s *PackageService) Teams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := s.gateway.List(ctx, docstore.Teams, &teams); err != nil {
		return nil, remoteErr(err)
	}
	if teams == nil {
		teams = []models.Team{}
	}
	return teams, nil
}

// TeamFilters is "All" followed by every team name, for the catalog filter bar.
func (s *PackageService) TeamFilters(ctx context.Context) ([]string, error) {
	teams, err := s.Teams(ctx)
	if err != nil {
		return nil, err
	}
	filters := make([]string, 0, len(teams)+1)
	filters = append(filters, models.TeamFilterAll)
	for _, t := range teams {
		filters = append(filters, t.Name)
	}
	return filters, nil
}

func (s *PackageService) CreateTeam(ctx context.Context, form models.TeamForm) ([]models.Team, error) {
	if err := s.validator.Struct(ctx, form); err != nil {
		return nil, err
	}
	form.Name = strings.TrimSpace(form.Name)

	teams, err := s.Teams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		if strings.EqualFold(t.Name, form.Name) {
			return nil, validationFields("name", "Team already exists")
		}
	}

	if _, err := s.gateway.Create(ctx, docstore.Teams, models.Team{Name: form.Name}); err != nil {
		return nil, remoteErr(err)
	}
	return s.Teams(ctx)
}

func (s *PackageService) NewEditor() *Editor[models.PackageForm, models.Package] {
	return NewEditor[models.PackageForm, models.Package](packageBinding{s}, s.reconciler, s.validator, models.PackageForm{})
}

// Create adds a package with an optional image and returns the refreshed list.
func (s *PackageService) Create(ctx context.Context, form models.PackageForm, image *FileBlob) ([]models.Package, error) {
	ed := s.NewEditor()
	ed.OpenCreate()
	if image != nil {
		_ = ed.StageFiles(*image)
	}
	return ed.Submit(ctx, form)
}

// Update edits a package. A new image replaces the old one; removeImage
// clears it without a replacement.
func (s *PackageService) Update(ctx context.Context, id string, form models.PackageForm, image *FileBlob, removeImage bool) ([]models.Package, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ed := s.NewEditor()
	ed.OpenEdit(id, packageForm(current), nonEmpty(current.ImageURL))
	if removeImage {
		_ = ed.StageRemoval(current.ImageURL)
	}
	if image != nil {
		_ = ed.StageFiles(*image)
	}
	return ed.Submit(ctx, form)
}

func (s *PackageService) Delete(ctx context.Context, id string) ([]models.Package, error) {
	if err := s.gateway.Delete(ctx, docstore.Packages, id); err != nil {
		return nil, remoteErr(err)
	}
	s.recordWrite(ctx, "delete")
	return s.List(ctx)
}

func (s *PackageService) recordWrite(ctx context.Context, op string) {
	_ = s.metrics.RecordCount(ctx, awspkg.MetricCatalogWrites, map[string]string{
		"Collection": docstore.Packages,
		"Operation":  op,
	})
}

func packageForm(p *models.Package) models.PackageForm {
	return models.PackageForm{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Team:        p.Team,
		Duration:    p.Duration,
	}
}

func nonEmpty(refs ...string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func validationFields(field, msg string) error {
	return apperrors.NewValidationError(map[string]string{field: msg})
}

type packageBinding struct {
	s *PackageService
}

func (b packageBinding) Namespace() string { return PackageImageNamespace }
func (b packageBinding) SingleImage() bool { return true }

func (b packageBinding) Check(ctx context.Context, form models.PackageForm) (map[string]string, error) {
	teams, err := b.s.Teams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		if t.Name == form.Team {
			return nil, nil
		}
	}
	return map[string]string{"team": "Team selection is required"}, nil
}

func (b packageBinding) record(form models.PackageForm, images []string) models.Package {
	p := models.Package{
		Title:       form.Title,
		Description: form.Description,
		Price:       form.Price,
		Team:        form.Team,
		Duration:    form.Duration,
	}
	if len(images) > 0 {
		p.ImageURL = images[0]
	}
	return p
}

func (b packageBinding) Create(ctx context.Context, form models.PackageForm, images []string) error {
	if _, err := b.s.gateway.Create(ctx, docstore.Packages, b.record(form, images)); err != nil {
		return remoteErr(err)
	}
	b.s.recordWrite(ctx, "create")
	return nil
}

func (b packageBinding) Update(ctx context.Context, id string, form models.PackageForm, images []string) error {
	p := b.record(form, images)
	err := b.s.gateway.Update(ctx, docstore.Packages, id, map[string]interface{}{
		"title":       p.Title,
		"description": p.Description,
		"price":       p.Price,
		"team":        p.Team,
		"duration":    p.Duration,
		"image_url":   p.ImageURL,
	})
	if err != nil {
		return remoteErr(err)
	}
	b.s.recordWrite(ctx, "update")
	return nil
}

func (b packageBinding) List(ctx context.Context) ([]models.Package, error) {
	return b.s.List(ctx)
}
