package vehicle

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
)

// DriveHandler serves GET /?t=&s= and answers with the resulting State.
func DriveHandler(car *Car, logger customlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := floatQuery(c, "t")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		s, err := floatQuery(c, "s")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		st := car.Apply(t, s)
		logger.Debugf("Applied t=%v s=%v -> left=%.2f right=%.2f", st.T, st.S, st.Left, st.Right)
		return c.JSON(st)
	}
}

func floatQuery(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return &v, nil
}
