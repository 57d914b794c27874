package httpserver

import (
	"io"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service/media"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// profileResponse encodes an absent profile as {"profile": null}.
type profileResponse struct {
	Profile *domain.UserProfile `json:"profile"`
}

type saveProfileRequest struct {
	Name string `json:"name"`
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func toProfileResponse(p mo.Option[domain.UserProfile]) profileResponse {
	if v, ok := p.Get(); ok {
		return profileResponse{Profile: &v}
	}
	return profileResponse{}
}

func callerProfileHandler(svc ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), callerFrom(c))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(p))
	}
}

func saveProfileHandler(svc ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveProfileRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := svc.Save(c.Request.Context(), callerFrom(c), domain.UserProfile{Name: req.Name}); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// userProfileHandler serves another principal's profile to that principal or an admin.
func userProfileHandler(profiles ProfileService, access AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, ok := principalParam(c)
		if !ok {
			return
		}
		caller := callerFrom(c)
		if caller != target {
			admin, err := access.IsAdmin(c.Request.Context(), caller)
			if err != nil {
				writeDomainError(c, err)
				return
			}
			if !admin {
				writeError(c, http.StatusForbidden, codeForbidden, "cannot read another user's profile")
				return
			}
		}
		p, err := profiles.Get(c.Request.Context(), target)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(p))
	}
}

func roleHandler(svc AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := svc.Role(c.Request.Context(), callerFrom(c))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": role})
	}
}

func isAdminHandler(svc AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := svc.IsAdmin(c.Request.Context(), callerFrom(c))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin": ok})
	}
}

func assignRoleHandler(svc AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, ok := principalParam(c)
		if !ok {
			return
		}
		var req assignRoleRequest
		if !bindJSON(c, &req) {
			return
		}
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		if err := svc.Assign(c.Request.Context(), callerFrom(c), target, role); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func uploadBlobHandler(svc MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, media.MaxUploadBytes+1))
		if err != nil {
			writeError(c, http.StatusBadRequest, codeInvalidInput, "could not read upload")
			return
		}
		img, err := svc.Upload(c.Request.Context(), c.ContentType(), data)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, img)
	}
}

func downloadBlobHandler(svc MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}

func deleteBlobHandler(svc MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func principalParam(c *gin.Context) (domain.Principal, bool) {
	id, err := uuid.Parse(c.Param("principal"))
	if err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, "invalid principal")
		return "", false
	}
	return domain.Principal(id.String()), true
}
