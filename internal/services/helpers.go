package services

import "strconv"

func examIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func resultIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func stringPtr(s string) *string {
	return &s
}
