package utils

import "strings"

func AppointmentTypeCacheKey(id string) string {
	return "appointment_types:v1:id=" + strings.ToLower(strings.TrimSpace(id))
}

const AppointmentTypesListCacheKey = "appointment_types:v1:list:active"
