package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	specialratesapp "staybook/internal/app/handlers/specialrates"
	"staybook/internal/app/queries"
)

type SpecialRatesHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h SpecialRatesHandler) List(c *gin.Context) {
	query := specialratesapp.ListSpecialRatesQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[specialratesapp.ListSpecialRatesQuery, dto.SpecialRateCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SpecialRatesHandler) Create(c *gin.Context) {
	var in dto.SpecialRateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	propertyID := c.Param("id")
	cmd := specialratesapp.CreateSpecialRateCommand{PropertyID: propertyID, Input: in}
	result, err := commands.Dispatch[specialratesapp.CreateSpecialRateCommand, *dto.SpecialRate](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/properties/%s/special-rates/%s", propertyID, result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h SpecialRatesHandler) Update(c *gin.Context) {
	var in dto.SpecialRateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	cmd := specialratesapp.UpdateSpecialRateCommand{PropertyID: c.Param("id"), RateID: c.Param("rateId"), Input: in}
	result, err := commands.Dispatch[specialratesapp.UpdateSpecialRateCommand, *dto.SpecialRate](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SpecialRatesHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h SpecialRatesHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h SpecialRatesHandler) setActive(c *gin.Context, active bool) {
	cmd := specialratesapp.SetSpecialRateActiveCommand{PropertyID: c.Param("id"), RateID: c.Param("rateId"), Active: active}
	result, err := commands.Dispatch[specialratesapp.SetSpecialRateActiveCommand, *dto.SpecialRate](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SpecialRatesHandler) Delete(c *gin.Context) {
	cmd := specialratesapp.DeleteSpecialRateCommand{PropertyID: c.Param("id"), RateID: c.Param("rateId")}
	result, err := commands.Dispatch[specialratesapp.DeleteSpecialRateCommand, *specialratesapp.DeleteSpecialRateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ SpecialRatesHTTP = SpecialRatesHandler{}
