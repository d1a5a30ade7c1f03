package realtime

import "errors"

var (
	ErrInvalidEvent     = errors.New("invalid event format")
	ErrNotChannelMember = errors.New("not a member of this channel")
)
