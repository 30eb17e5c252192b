package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
)

type counterResponse struct {
	Type         string `json:"type" example:"hospital_id"`
	Scope        string `json:"scope" example:"OC-CGH"`
	CurrentValue int64  `json:"current_value" example:"2"`
}

// counterKey resolves the counter a query refers to. Derived counters take
// the base in ?scope= or a clinic name in ?name=, clinic counters take
// ?clinic_id=.
func counterKey(c *gin.Context, alloc *sequence.Allocator, policy sequence.Policy) (sequence.Key, error) {
	switch policy.Scope {
	case sequence.ScopeDerived:
		if scope := c.Query("scope"); scope != "" {
			return sequence.Key{Type: policy.Type, Scope: scope}, nil
		}
		if name := c.Query("name"); name != "" {
			base, err := alloc.HospitalIDBase(name)
			return sequence.Key{Type: policy.Type, Scope: base}, err
		}
		return sequence.Key{}, fmt.Errorf("%w: scope or name is required for %s", sequence.ErrInvalidKey, policy.Type)
	case sequence.ScopeClinic:
		clinicID, err := strconv.ParseUint(c.Query("clinic_id"), 10, 64)
		if err != nil || clinicID == 0 {
			return sequence.Key{}, fmt.Errorf("%w: clinic_id is required for %s", sequence.ErrInvalidKey, policy.Type)
		}
		return sequence.ClinicKey(policy.Type, uint(clinicID)), nil
	default:
		return sequence.GlobalKey(policy.Type), nil
	}
}

// GetCounter godoc
// @Summary      Inspect a counter
// @Description  Return the last value issued for a sequence counter without advancing it
// @Tags         Counter
// @Produce      json
// @Param        type path string true "Sequence type: hospital_id|patient_uhid|bill"
// @Param        scope query string false "Counter scope, e.g. OC-CGH for hospital IDs"
// @Param        name query string false "Clinic name to derive the hospital ID base from"
// @Param        clinic_id query int false "Clinic ID for clinic scoped counters"
// @Success      200 {object} util.APIResponse{data=counterResponse} "Counter retrieved"
// @Failure      400 {object} util.APIResponse "Invalid counter key"
// @Failure      404 {object} util.APIResponse "Unknown sequence type"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /counter/{type} [get]
func GetCounter(c *gin.Context) {
	alloc, ok := getAllocatorOrRespond(c)
	if !ok {
		return
	}

	policy, err := alloc.Policy(c.Param("type"))
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Unknown sequence type", Err: err})
		return
	}

	key, err := counterKey(c, alloc, policy)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid counter key", Err: err})
		return
	}

	value, err := alloc.Current(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, sequence.ErrInvalidKey) {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid counter key", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to read counter", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Counter retrieved",
		Data: counterResponse{Type: key.Type, Scope: key.Scope, CurrentValue: value},
	})
}
