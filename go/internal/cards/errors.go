package cards

import "errors"

// ErrInvalidCard is returned when a wire card carries an out of range suit or rank
var ErrInvalidCard = errors.New("invalid card")
