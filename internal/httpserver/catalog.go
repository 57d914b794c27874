package httpserver

import (
	"net/http"
	"strings"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Rating   uint8  `json:"rating"`
	Comment  string `json:"comment"`
}

func listProductsHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.List(c.Request.Context())
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(products))
	}
}

func searchProductsHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.Search(c.Request.Context(), strings.TrimSpace(c.Query("text")))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(products))
	}
}

func getProductHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.ProductInput
		if !bindJSON(c, &in) {
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var in domain.ProductInput
		if !bindJSON(c, &in) {
			return
		}
		p, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func deleteProductHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listCategoriesHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.List(c.Request.Context())
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(cats))
	}
}

func getCategoryHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		cat, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func createCategoryHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCategoryRequest
		if !bindJSON(c, &req) {
			return
		}
		cat, err := svc.Create(c.Request.Context(), req.Name)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

func listReviewsHandler(svc ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		reviews, err := svc.List(c.Request.Context(), id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(reviews))
	}
}

func addReviewHandler(svc ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		var req reviewRequest
		if !bindJSON(c, &req) {
			return
		}
		err := svc.Add(c.Request.Context(), domain.Review{
			ProductID: id,
			Reviewer:  req.Reviewer,
			Rating:    req.Rating,
			Comment:   req.Comment,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
