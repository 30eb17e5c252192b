package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const clinicIDHeader = "X-Clinic-ID"

var (
	errMissingClinic = errors.New("clinic not specified")
	errInvalidClinic = errors.New("invalid clinic id")
	errInvalidToken  = errors.New("invalid bearer token")
)

// ResolveClinic determines which clinic a request belongs to. A bearer
// token's clinic_id claim wins over the X-Clinic-ID header. The clinic must
// exist and be active. No authorization is applied beyond that.
func ResolveClinic() gin.HandlerFunc {
	return func(c *gin.Context) {
		clinicID, err := clinicFromRequest(c)
		if err != nil {
			util.LogTenantRejected(c.ClientIP(), c.Request.URL.Path, err.Error())
			if errors.Is(err, errInvalidToken) {
				util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid bearer token", Err: err})
			} else {
				util.CallUserError(c, util.APIErrorParams{Msg: "Clinic could not be resolved", Err: err})
			}
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
			c.Abort()
			return
		}

		var clinic model.Clinic
		if err := db.WithContext(c.Request.Context()).Select("id", "active").First(&clinic, clinicID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.LogTenantRejected(c.ClientIP(), c.Request.URL.Path, "unknown clinic")
				util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Clinic not found", Err: err})
			} else {
				util.CallServerError(c, util.APIErrorParams{Msg: "Failed to resolve clinic", Err: err})
			}
			c.Abort()
			return
		}
		if !clinic.Active {
			util.LogTenantRejected(c.ClientIP(), c.Request.URL.Path, "inactive clinic")
			util.CallUserError(c, util.APIErrorParams{Msg: "Clinic is inactive", Err: fmt.Errorf("clinic %d is inactive", clinicID)})
			c.Abort()
			return
		}

		c.Set(ClinicIDKey, clinic.ID)
		c.Next()
	}
}

// GetClinicID returns the clinic resolved by ResolveClinic.
func GetClinicID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ClinicIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func clinicFromRequest(c *gin.Context) (uint, error) {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return clinicFromToken(strings.TrimPrefix(auth, "Bearer "))
	}

	header := strings.TrimSpace(c.GetHeader(clinicIDHeader))
	if header == "" {
		return 0, errMissingClinic
	}
	id, err := strconv.ParseUint(header, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidClinic
	}
	return uint(id), nil
}

func clinicFromToken(raw string) (uint, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return util.GetJWTSecretByte(), nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	switch v := claims["clinic_id"].(type) {
	case float64:
		if v >= 1 && v == float64(uint(v)) {
			return uint(v), nil
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id != 0 {
			return uint(id), nil
		}
	case nil:
		return 0, errMissingClinic
	}
	return 0, errInvalidClinic
}
