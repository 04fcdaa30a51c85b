package echoapi

import (
	"encoding/json"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

// bindPatch decodes a raw patch payload into out, checking its keys against
// the allow-list before anything is fetched or mutated.
func bindPatch(ctx echo.Context, out interface{}, allowed ...string) error {
	payload := make(map[string]interface{})
	if err := ctx.Bind(&payload); err != nil {
		return errors.Wrap(err, "binding patch payload")
	}
	if err := core.FilterUpdateFields(payload, allowed...); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding patch payload")
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding patch payload")
}
