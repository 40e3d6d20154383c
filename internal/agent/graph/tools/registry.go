package tools

// Registry is the fixed set of tools the executor dispatches over. The
// agent supports exactly two actions; growing this means growing the
// decision schema and the executor switch together.
type Registry struct {
	Search  *SearchTool
	Booking *BookingTool
}

func NewRegistry(search *SearchTool, booking *BookingTool) *Registry {
	return &Registry{Search: search, Booking: booking}
}
