package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	BatchStart   string
	BatchEnd     string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
