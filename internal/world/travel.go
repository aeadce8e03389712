package world

// PuzzleHouses is the house count of the canonical Zebra instance. Only that
// ring uses the directional travel table below.
const PuzzleHouses = 6

// Days to reach the right/left neighbor from each house of the canonical ring,
// indexed by origin house. Costs depend on the direction taken: from house 1 the
// right road takes two days and the left road three, from house 3 it is two and
// one.
var (
	puzzleRightDays = [PuzzleHouses + 1]int{0, 2, 1, 2, 2, 2, 3}
	puzzleLeftDays  = [PuzzleHouses + 1]int{0, 3, 2, 1, 2, 2, 2}
)

// TravelDays returns how many days a trip from one house to another takes.
// Staying put costs nothing. On the canonical six-house ring neighbor trips
// follow the puzzle table; every other trip takes one day.
func (r *Ring) TravelDays(from, to HouseID) int {
	if from == to {
		return 0
	}
	if r.Houses == PuzzleHouses && r.InBounds(from) {
		if to == r.Right(from) {
			return puzzleRightDays[from]
		}
		if to == r.Left(from) {
			return puzzleLeftDays[from]
		}
	}
	return 1
}
