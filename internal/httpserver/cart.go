package httpserver

import (
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  uint64 `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity uint64 `json:"quantity"`
}

func getCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Get(c.Request.Context(), callerFrom(c))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(items))
	}
}

func addCartItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := svc.Add(c.Request.Context(), callerFrom(c), req.ProductID, req.Quantity); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func updateCartItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := uintParam(c, "productId")
		if !ok {
			return
		}
		var req updateCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := svc.Update(c.Request.Context(), callerFrom(c), productID, req.Quantity); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeCartItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := uintParam(c, "productId")
		if !ok {
			return
		}
		if err := svc.Remove(c.Request.Context(), callerFrom(c), productID); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), callerFrom(c)); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func placeOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.OrderRequest
		if !bindJSON(c, &req) {
			return
		}
		o, err := svc.Place(c.Request.Context(), callerFrom(c), req)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

func orderHistoryHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.History(c.Request.Context(), callerFrom(c))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(orders))
	}
}

func allOrdersHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.All(c.Request.Context())
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(orders))
	}
}
