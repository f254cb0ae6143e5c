package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
	"go.uber.org/zap"
)

// CatalogController serves packages and teams, publicly for the booking flow
// and under /admin for editing.
type CatalogController struct {
	packages *services.PackageService
	logger   *zap.Logger
}

func NewCatalogController(packages *services.PackageService, logger *zap.Logger) *CatalogController {
	return &CatalogController{packages: packages, logger: logger}
}

// ListPackages filters by ?team=, where "All" or no value matches everything.
func (cc *CatalogController) ListPackages(c *gin.Context) {
	pkgs, err := cc.packages.ListByTeam(c.Request.Context(), c.Query("team"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}

func (cc *CatalogController) ListTeams(c *gin.Context) {
	ctx := c.Request.Context()
	teams, err := cc.packages.Teams(ctx)
	if err != nil {
		c.Error(err)
		return
	}
	filters, err := cc.packages.TeamFilters(ctx)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams, "filters": filters})
}

func (cc *CatalogController) CreateTeam(c *gin.Context) {
	var form models.TeamForm
	if !bind(c, &form) {
		return
	}
	teams, err := cc.packages.CreateTeam(c.Request.Context(), form)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"teams": teams})
}

// CreatePackage accepts JSON or multipart; a multipart "image" file becomes
// the package image.
func (cc *CatalogController) CreatePackage(c *gin.Context) {
	var form models.PackageForm
	if !bind(c, &form) {
		return
	}

	pkgs, err := cc.packages.Create(c.Request.Context(), form, formFile(c, "image"))
	if err != nil {
		c.Error(err)
		return
	}
	cc.logger.Info("Package created", zap.String("title", form.Title), zap.String("userID", currentUserID(c)))
	c.JSON(http.StatusCreated, gin.H{"packages": pkgs})
}

type updatePackageRequest struct {
	models.PackageForm
	RemoveImage bool `json:"remove_image" form:"remove_image"`
}

func (cc *CatalogController) UpdatePackage(c *gin.Context) {
	var req updatePackageRequest
	if !bind(c, &req) {
		return
	}

	id := c.Param("id")
	pkgs, err := cc.packages.Update(c.Request.Context(), id, req.PackageForm, formFile(c, "image"), req.RemoveImage)
	if err != nil {
		c.Error(err)
		return
	}
	cc.logger.Info("Package updated", zap.String("packageID", id), zap.String("userID", currentUserID(c)))
	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}

func (cc *CatalogController) DeletePackage(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	id := c.Param("id")
	pkgs, err := cc.packages.Delete(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	cc.logger.Info("Package deleted", zap.String("packageID", id), zap.String("userID", currentUserID(c)))
	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}
