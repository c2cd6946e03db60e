package record

import "errors"

var (
	ErrEntryNotFound   = errors.New("record number entry not found")
	ErrDuplicateActive = errors.New("patient already has a current record number entry")
)
