package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/dialect-service/internal/dialect"
)

// FlavorsResponse lists the predefined dialects by name
type FlavorsResponse struct {
	Flavors map[string]dialect.Dialect `json:"flavors"`
}

// ListFlavors returns every predefined dialect
// GET /v1/flavors
func ListFlavors(c *gin.Context) {
	out := FlavorsResponse{Flavors: make(map[string]dialect.Dialect)}
	for _, name := range dialect.FlavorNames() {
		d, err := dialect.Lookup(name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		out.Flavors[name] = d
	}
	c.JSON(http.StatusOK, out)
}

// GetFlavor returns one predefined dialect
// GET /v1/flavors/:name
func GetFlavor(c *gin.Context) {
	d, err := dialect.Lookup(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}
