package counter

// MovingAverage is a fixed-capacity ring buffer of scalar readings whose
// value is the arithmetic mean of the buffered entries. Capacity never
// grows after construction; once full, each push evicts the oldest entry.
type MovingAverage struct {
	values []float64
	count  int
	next   int
	sum    float64
}

// NewMovingAverage creates a moving average over the given window size.
// Windows smaller than 1 are clamped to 1.
func NewMovingAverage(window int) *MovingAverage {
	if window < 1 {
		window = 1
	}
	return &MovingAverage{
		values: make([]float64, window),
	}
}

// Push adds a reading, evicting the oldest once the window is full,
// and returns the updated mean.
func (m *MovingAverage) Push(v float64) float64 {
	if m.count == len(m.values) {
		m.sum -= m.values[m.next]
	} else {
		m.count++
	}

	m.values[m.next] = v
	m.sum += v
	m.next = (m.next + 1) % len(m.values)

	return m.Value()
}

// Value returns the mean of the currently buffered readings,
// or 0 if nothing has been pushed.
func (m *MovingAverage) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Len returns the number of buffered readings.
func (m *MovingAverage) Len() int {
	return m.count
}

// Reset discards all buffered readings.
func (m *MovingAverage) Reset() {
	m.count = 0
	m.next = 0
	m.sum = 0
}
