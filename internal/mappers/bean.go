package mappers

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yungbote/allthebeans-backend/internal/types"
)

// BeanResponse is the wire shape of a bean. Field names are inherited from
// the public API contract and intentionally mix casings.
type BeanResponse struct {
	ID          string `json:"_id"`
	Index       uint   `json:"index"`
	IsBOTD      bool   `json:"isBOTD"`
	Cost        string `json:"Cost"`
	Image       string `json:"Image"`
	Colour      string `json:"colour"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Country     string `json:"Country"`
}

type BeansResponse struct {
	Beans []BeanResponse `json:"beans"`
	Total int64          `json:"total"`
}

// BeanMapper renders entities into responses: ids as dashless hex, cost as a
// currency string for the configured culture, image as the configured base
// joined with the image name.
type BeanMapper struct {
	imagesLocation string
	printer        *message.Printer
	unit           currency.Unit
}

// NewBeanMapper fails when either setting is absent or the culture is not a
// parseable BCP 47 tag with an associated currency; the caller treats that
// as a fatal startup error.
func NewBeanMapper(imagesLocation, currencyCulture string) (*BeanMapper, error) {
	if strings.TrimSpace(imagesLocation) == "" {
		return nil, fmt.Errorf("images location must be provided")
	}
	if strings.TrimSpace(currencyCulture) == "" {
		return nil, fmt.Errorf("currency culture must be provided")
	}
	tag, err := language.Parse(currencyCulture)
	if err != nil {
		return nil, fmt.Errorf("parse currency culture %q: %w", currencyCulture, err)
	}
	unit, confidence := currency.FromTag(tag)
	if confidence == language.No {
		return nil, fmt.Errorf("currency culture %q has no associated currency", currencyCulture)
	}
	return &BeanMapper{
		imagesLocation: imagesLocation,
		printer:        message.NewPrinter(tag),
		unit:           unit,
	}, nil
}

func (m *BeanMapper) ToBeanResponse(bean *types.Bean) BeanResponse {
	return BeanResponse{
		ID:          strings.ReplaceAll(bean.ID.String(), "-", ""),
		Index:       bean.Index,
		IsBOTD:      bean.IsBOTD,
		Cost:        m.formatCost(bean),
		Image:       m.imagesLocation + bean.ImageName,
		Colour:      bean.Colour.Label(),
		Name:        bean.Name,
		Description: bean.Description,
		Country:     bean.CountryName(),
	}
}

func (m *BeanMapper) ToBeansResponse(beans []*types.Bean, total int64) BeansResponse {
	responses := make([]BeanResponse, 0, len(beans))
	for _, bean := range beans {
		responses = append(responses, m.ToBeanResponse(bean))
	}
	return BeansResponse{Beans: responses, Total: total}
}

// formatCost renders the symbol for the configured culture followed by the
// exact decimal amount. Going through a float here would lose precision on
// large costs.
func (m *BeanMapper) formatCost(bean *types.Bean) string {
	symbol := m.printer.Sprint(currency.Symbol(m.unit))
	return symbol + bean.Cost.StringFixed(2)
}
