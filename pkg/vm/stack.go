package vm

// Frame is an activation record. Parameters and locals live in the shared
// memory, so a frame only remembers where to resume.
type Frame struct {
	ReturnPC int
	Function string
}

// operandStack is the LIFO integer working storage.
type operandStack struct {
	values []int64
}

func (s *operandStack) push(v int64) {
	s.values = append(s.values, v)
}

func (s *operandStack) pop() (int64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, true
}

func (s *operandStack) len() int {
	return len(s.values)
}

// snapshot returns a copy, bottom first.
func (s *operandStack) snapshot() []int64 {
	out := make([]int64, len(s.values))
	copy(out, s.values)
	return out
}
