package portal

// Slice names reported by the pie-chart endpoint.
const (
	SliceUptime   = "uptime"
	SliceDowntime = "downtime"
	SliceNoData   = "noData"
)

// SliceValue returns the seconds recorded for a named slice, or nil when the
// slice is absent or carries no value.
func SliceValue(slices []UptimePieSlice, name string) *float64 {
	for _, s := range slices {
		if s.Name == name {
			return s.Value
		}
	}
	return nil
}

func sliceSeconds(slices []UptimePieSlice, name string) float64 {
	if v := SliceValue(slices, name); v != nil {
		return *v
	}
	return 0
}

// UptimeRatioTotal derives the uptime percentage over the whole period,
// counting noData seconds in the denominator. Nil when the period holds no
// seconds at all.
func UptimeRatioTotal(slices []UptimePieSlice) *float64 {
	uptime := sliceSeconds(slices, SliceUptime)
	denominator := uptime + sliceSeconds(slices, SliceDowntime) + sliceSeconds(slices, SliceNoData)
	if denominator == 0 {
		return nil
	}
	ratio := uptime / denominator * 100
	return &ratio
}

// UptimeRatioActual derives the uptime percentage over the observed part of
// the period, excluding noData seconds. Nil when nothing was observed.
func UptimeRatioActual(slices []UptimePieSlice) *float64 {
	uptime := sliceSeconds(slices, SliceUptime)
	denominator := uptime + sliceSeconds(slices, SliceDowntime)
	if denominator == 0 {
		return nil
	}
	ratio := uptime / denominator * 100
	return &ratio
}
