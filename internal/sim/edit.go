package sim

import (
	"fmt"

	"github.com/san-kum/circsim/internal/element"
)

// The editing helpers change the circuit and reanalyze it. Node and
// voltage-source indices held from before the call are stale afterwards.

func (s *Simulator) AddElement(e element.Element) error {
	s.elements = append(s.elements, e)
	return s.AnalyzeCircuit()
}

func (s *Simulator) RemoveElement(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	return s.AnalyzeCircuit()
}

func (s *Simulator) MovePost(i, post int, p element.Point) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	e := s.elements[i]
	if post < 0 || post >= e.PostCount() {
		return fmt.Errorf("%w: element %d has no post %d", ErrElementIndex, i, post)
	}
	e.SetPost(post, p)
	return s.AnalyzeCircuit()
}

func (s *Simulator) SetParam(i int, name string, value float64) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if err := s.elements[i].SetParam(name, value); err != nil {
		return err
	}
	return s.AnalyzeCircuit()
}

func (s *Simulator) checkIndex(i int) error {
	if i < 0 || i >= len(s.elements) {
		return fmt.Errorf("%w: %d (have %d)", ErrElementIndex, i, len(s.elements))
	}
	return nil
}
