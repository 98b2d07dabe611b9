package eventmodels

import "strconv"

func FormatOptionalID(id *uint) string {
	if id == nil {
		return ""
	}

	return strconv.FormatUint(uint64(*id), 10)
}

func UintPtr(v uint) *uint {
	return &v
}
