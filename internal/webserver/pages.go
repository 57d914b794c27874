package webserver

import (
	"net/http"
	"strconv"

	"storefront/internal/views"

	"github.com/gin-gonic/gin"
)

func shellHandler(r *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Shell(c.Request.Context(), visitorFrom(c), c.Query("search")))
	}
}

func homeHandler(r *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := views.HomeQuery{Search: c.Query("search")}
		if raw := c.Query("category"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				writeError(c, http.StatusBadRequest, codeInvalidInput, "invalid category")
				return
			}
			q.Category = id
		}
		c.JSON(http.StatusOK, r.Home(c.Request.Context(), visitorFrom(c), q))
	}
}

func productPageHandler(r *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, r.ProductDetail(c.Request.Context(), visitorFrom(c), id))
	}
}

func cartPageHandler(r *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Cart(c.Request.Context(), visitorFrom(c)))
	}
}

func checkoutPageHandler(r *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Checkout(c.Request.Context(), visitorFrom(c)))
	}
}

func adminPageHandler(r *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Admin(c.Request.Context(), visitorFrom(c)))
	}
}
