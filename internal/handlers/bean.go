package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/allthebeans-backend/internal/apperr"
	"github.com/yungbote/allthebeans-backend/internal/mappers"
	"github.com/yungbote/allthebeans-backend/internal/services"
	"github.com/yungbote/allthebeans-backend/internal/types"
)

var imageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type BeanHandler struct {
	beanService services.BeanService
	botdService services.BeanOfTheDayService
	mapper      *mappers.BeanMapper
}

func NewBeanHandler(
	beanService services.BeanService,
	botdService services.BeanOfTheDayService,
	mapper *mappers.BeanMapper,
) *BeanHandler {
	return &BeanHandler{
		beanService: beanService,
		botdService: botdService,
		mapper:      mapper,
	}
}

type getAllQuery struct {
	PageNumber int    `form:"pageNumber,default=1"`
	PageSize   int    `form:"pageSize,default=10"`
	Search     string `form:"search"`
}

type createBeanPayload struct {
	Index       *uint            `json:"index" binding:"required"`
	IsBOTD      bool             `json:"isBOTD"`
	Cost        *decimal.Decimal `json:"cost" binding:"required"`
	Image       string           `json:"image" binding:"required,max=50"`
	Colour      types.BeanColour `json:"colour"`
	Name        string           `json:"name" binding:"required,max=100"`
	Description string           `json:"description" binding:"required,max=2000"`
	Country     string           `json:"country" binding:"required,max=100"`
}

func (p *createBeanPayload) validate() error {
	if p.Cost.IsNegative() {
		return errors.New("cost must not be negative")
	}
	if !imageNamePattern.MatchString(p.Image) {
		return errors.New("image must contain only letters, digits, '_', '.' or '-'")
	}
	return nil
}

func (p *createBeanPayload) toInput() services.CreateBeanInput {
	return services.CreateBeanInput{
		Index:       *p.Index,
		IsBOTD:      p.IsBOTD,
		Cost:        *p.Cost,
		ImageName:   p.Image,
		Colour:      p.Colour,
		Name:        p.Name,
		Description: p.Description,
		CountryName: p.Country,
	}
}

type updateBeanPayload struct {
	Index       *uint             `json:"index"`
	IsBOTD      *bool             `json:"isBOTD"`
	Cost        *decimal.Decimal  `json:"cost"`
	Image       *string           `json:"image" binding:"omitempty,max=50"`
	Colour      *types.BeanColour `json:"colour"`
	Name        *string           `json:"name" binding:"omitempty,max=100"`
	Description *string           `json:"description" binding:"omitempty,max=2000"`
	Country     *string           `json:"country" binding:"omitempty,max=100"`
}

func (p *updateBeanPayload) validate() error {
	if p.Index == nil && p.IsBOTD == nil && p.Cost == nil && p.Image == nil &&
		p.Colour == nil && p.Name == nil && p.Description == nil && p.Country == nil {
		return errors.New("at least one value should be provided")
	}
	if p.Cost != nil && p.Cost.IsNegative() {
		return errors.New("cost must not be negative")
	}
	if p.Image != nil && !imageNamePattern.MatchString(*p.Image) {
		return errors.New("image must contain only letters, digits, '_', '.' or '-'")
	}
	return nil
}

func (p *updateBeanPayload) toInput() services.PatchBeanInput {
	return services.PatchBeanInput{
		Index:       p.Index,
		IsBOTD:      p.IsBOTD,
		Cost:        p.Cost,
		ImageName:   p.Image,
		Colour:      p.Colour,
		Name:        p.Name,
		Description: p.Description,
		CountryName: p.Country,
	}
}

// GetAll handles GET /beans?pageNumber=&pageSize=&search=.
func (bh *BeanHandler) GetAll(c *gin.Context) {
	var query getAllQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	beans, total, err := bh.beanService.GetAll(c.Request.Context(), query.PageNumber, query.PageSize, query.Search)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, bh.mapper.ToBeansResponse(beans, total))
}

// GetByID handles GET /beans/:id.
func (bh *BeanHandler) GetByID(c *gin.Context) {
	id, err := parseBeanID(c)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	bean, err := bh.beanService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, bh.mapper.ToBeanResponse(bean))
}

// GetOfTheDay handles GET /beans/of-the-day.
func (bh *BeanHandler) GetOfTheDay(c *gin.Context) {
	bean, err := bh.botdService.GetToday(c.Request.Context())
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, bh.mapper.ToBeanResponse(bean))
}

// Create handles POST /beans.
func (bh *BeanHandler) Create(c *gin.Context) {
	var payload createBeanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := payload.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	bean, err := bh.beanService.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, bh.mapper.ToBeanResponse(bean))
}

// CreateOrUpdate handles PUT /beans/:id. A miss creates a new bean with a
// server-generated id; the path id is never adopted for new rows.
func (bh *BeanHandler) CreateOrUpdate(c *gin.Context) {
	id, err := parseBeanID(c)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	var payload createBeanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := payload.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	bean, err := bh.beanService.CreateOrUpdate(c.Request.Context(), id, payload.toInput())
	if err != nil {
		RespondFailure(c, err)
		return
	}
	RespondOK(c, bh.mapper.ToBeanResponse(bean))
}

// Patch handles PATCH /beans/:id.
func (bh *BeanHandler) Patch(c *gin.Context) {
	id, err := parseBeanID(c)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	var payload updateBeanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := payload.validate(); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := bh.beanService.Patch(c.Request.Context(), id, payload.toInput()); err != nil {
		RespondFailure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /beans/:id.
func (bh *BeanHandler) Delete(c *gin.Context) {
	id, err := parseBeanID(c)
	if err != nil {
		RespondFailure(c, err)
		return
	}
	if err := bh.beanService.Delete(c.Request.Context(), id); err != nil {
		RespondFailure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseBeanID(c *gin.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid(fmt.Errorf("invalid bean id %q", raw))
	}
	return id, nil
}
