package indicator

import (
	"fmt"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

func (e *Engine) manual(def Definition, b domain.EntityBundle) domain.Indicator {
	v, ok := b.Override(def.Key)
	if !ok {
		return missing(def, "Default neutral (no user input)")
	}
	return newIndicator(def, domain.StatusManual, mathx.Clamp100(v*100),
		fmt.Sprintf("User input: %g", v))
}
