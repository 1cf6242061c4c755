package events

// Screen-width device buckets
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceLaptop  = "laptop"
	DeviceDesktop = "desktop"
)

// Breakpoints follow the common CSS grid tiers.
const (
	mobileMaxWidth = 576
	tabletMaxWidth = 992
	laptopMaxWidth = 1440
)

// DeviceCategoryForWidth buckets a reported screen width. Widths of zero or
// below land in the widest bucket, matching trackers that omit the field.
func DeviceCategoryForWidth(screenWidth int) string {
	switch {
	case screenWidth > 0 && screenWidth < mobileMaxWidth:
		return DeviceMobile
	case screenWidth > 0 && screenWidth < tabletMaxWidth:
		return DeviceTablet
	case screenWidth > 0 && screenWidth < laptopMaxWidth:
		return DeviceLaptop
	default:
		return DeviceDesktop
	}
}
