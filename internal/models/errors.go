package models

import "errors"

var ErrActivityLogImmutable = errors.New("activity log entries are append-only")
