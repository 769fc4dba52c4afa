package score

// Hard-tier weights. A single unit is a plain conflict; the larger values
// keep structurally impossible states strictly dominated.
const (
	weightConflict        = 1       // room, teacher and group double-booking, per pair
	weightKindMismatch    = 1       // lab/theory session in the wrong slot or room kind
	weightUnbatchedLab    = 1       // large-group lab without a batch label
	weightBlackout        = 1       // teacher or room external unavailability
	weightRestrictedRoom  = 1       // department-restricted room used by another department
	weightLunchWindow     = 30      // all three midday theory starts occupied
	weightWorkday         = 1000    // department outside its allowed days
	weightPinnedRoom      = 1000    // session moved away from its pre-allocated room
	weightTheoryBatch     = 10000   // lecture/tutorial carrying a batch label
	weightLabTypeMismatch = 10000   // declared lab type differs from the room's
	weightSameBatch       = 100000  // identical batch double-booked, per pair
	weightMappedLab       = 1000000 // mapped course outside its allowed labs
)

// Soft-tier weights; negative values are rewards.
const (
	weightLabPriority     = 50 // per position down the priority list
	weightWeeklyHours     = 1  // per effective hour beyond the teacher cap
	weightDailyLoad       = 3  // per effective hour beyond 6 on one day
	weightContinuousRun   = 50 // scaled by 10 per hour beyond 4 back-to-back
	weightWorkdaySpan     = 1  // per minute beyond an 8 hour day span
	weightShiftAdherence  = 100
	weightMinClasses      = 50 // scaled by 10 per missing class under 3
	weightWeeklyBalance   = 30
	weightOneKindDay      = 80
	weightNoLabDay        = 60
	weightTravel          = 2
	weightConsecutive     = -2 // reward for adjacent same-course sessions
	weightPairedBatchSlot = 1  // B1/B2 of one course in different slots, per pair
	weightLargeLabWaste   = 150
)

// largeLabThreshold is the capacity from which a lab counts as full-class
// sized; a lone batch inside one wastes seats.
const largeLabThreshold = 70

// Grid anchors shared by the lunch-window and shift rules, in minutes
// since midnight.
const (
	lunchFirstStart  = 11 * 60
	lunchSecondStart = 12 * 60
	lunchThirdStart  = 13 * 60

	earlyShiftStart = 7 * 60
	earlyShiftEnd   = 16 * 60
	midShiftStart   = 9 * 60
	midShiftEnd     = 18 * 60

	veryEarlyStart = 7 * 60
	lateFirstStart = 12 * 60
	lateDayEnd     = 17*60 + 30

	maxContinuousHours = 4
	maxDailyHours      = 6
	maxDaySpanMinutes  = 8 * 60
	minClassesPerDay   = 3
	adjacencyGap       = 30 // minutes bridged when measuring continuous runs
)

// labWastefulness grades how poorly a single batch fills a large lab,
// from half the group strength against the room capacity.
func labWastefulness(batchSize, capacity int) int {
	utilization := float64(batchSize) / float64(capacity)
	switch {
	case utilization < 0.3:
		return 25
	case utilization < 0.5:
		return 15
	case utilization < 0.7:
		return 8
	default:
		return 2
	}
}

// lunchPenalty maps the number of occupied midday theory starts to the
// hard contribution. Only the full occupancy of all three is treated as a
// violation; the scale is kept whole for diagnostics.
func lunchPenalty(occupied int) int {
	switch occupied {
	case 0:
		return 0
	case 1:
		return 5
	case 2:
		return 15
	default:
		return 30
	}
}
