package explain

import "errors"

// ErrIntegration is returned when a classifier does not expose the
// vectorization, weight or vocabulary structure the explainer relies on.
var ErrIntegration = errors.New("classifier integration error")
