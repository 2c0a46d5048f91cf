package model

import "sort"

// Class is a class id plus the ordered-insertion set of students currently
// assigned to it. Everything else about a class (size, means, counts) is
// derived on demand from the owning Snapshot so there is exactly one place
// membership can drift out of sync.
type Class struct {
	ID      ClassID
	members []StudentID
}

// Members returns the ordered-insertion set of student ids in the class.
// The returned slice is a copy; callers cannot mutate class state through it.
func (c Class) Members() []StudentID {
	out := make([]StudentID, len(c.members))
	copy(out, c.members)
	return out
}

func (c Class) indexOf(id StudentID) int {
	for i, m := range c.members {
		if m == id {
			return i
		}
	}
	return -1
}

// Snapshot is a complete mapping of students to classes at a point in time:
// a student_id -> student table, a class_id -> class table, and the target
// class count K. Students are immutable; classes are mutated only through
// PlaceStudent, the single mutation primitive every neighborhood operation
// is built on.
type Snapshot struct {
	students     []Student
	studentIndex map[StudentID]int
	classOrder   []ClassID
	classes      map[ClassID]*Class
	classOf      map[StudentID]ClassID
	TargetK      int
	Columns      []string
}

// NewSnapshot builds a snapshot from a roster and an explicit, stably
// ordered list of class ids. Every class id is created empty; callers place
// students with PlaceStudent.
func NewSnapshot(students []Student, classIDs []ClassID, columns []string) *Snapshot {
	s := &Snapshot{
		students:     make([]Student, len(students)),
		studentIndex: make(map[StudentID]int, len(students)),
		classOrder:   append([]ClassID(nil), classIDs...),
		classes:      make(map[ClassID]*Class, len(classIDs)),
		classOf:      make(map[StudentID]ClassID, len(students)),
		TargetK:      len(classIDs),
		Columns:      append([]string(nil), columns...),
	}
	for i, st := range students {
		s.students[i] = st.Normalize()
		s.studentIndex[st.ID] = i
	}
	for _, cid := range classIDs {
		s.classes[cid] = &Class{ID: cid}
	}
	return s
}

// DeepCopy returns an independent snapshot; mutating the copy never affects
// the original. Every algorithm snapshots before comparing or reverting.
func (s *Snapshot) DeepCopy() *Snapshot {
	cp := &Snapshot{
		students:     append([]Student(nil), s.students...),
		studentIndex: make(map[StudentID]int, len(s.studentIndex)),
		classOrder:   append([]ClassID(nil), s.classOrder...),
		classes:      make(map[ClassID]*Class, len(s.classes)),
		classOf:      make(map[StudentID]ClassID, len(s.classOf)),
		TargetK:      s.TargetK,
		Columns:      append([]string(nil), s.Columns...),
	}
	for k, v := range s.studentIndex {
		cp.studentIndex[k] = v
	}
	for k, v := range s.classOf {
		cp.classOf[k] = v
	}
	for cid, c := range s.classes {
		cp.classes[cid] = &Class{ID: c.ID, members: append([]StudentID(nil), c.members...)}
	}
	// Student structs hold only value fields and slices that are never
	// mutated after Normalize, so a shallow copy of the slice header is
	// safe; the friend/dislike lists are read-only from here on.
	return cp
}

// StudentByID looks up a student by id.
func (s *Snapshot) StudentByID(id StudentID) (*Student, bool) {
	i, ok := s.studentIndex[id]
	if !ok {
		return nil, false
	}
	return &s.students[i], true
}

// Students returns the roster in stable input order.
func (s *Snapshot) Students() []Student {
	return s.students
}

// StudentIDs returns student ids in stable input order.
func (s *Snapshot) StudentIDs() []StudentID {
	out := make([]StudentID, len(s.students))
	for i, st := range s.students {
		out[i] = st.ID
	}
	return out
}

// ClassIDs returns class ids in the snapshot's stable order.
func (s *Snapshot) ClassIDs() []ClassID {
	return append([]ClassID(nil), s.classOrder...)
}

// SortedClassIDs is ClassIDs sorted lexicographically, used wherever a
// deterministic tie-break by class id is required.
func (s *Snapshot) SortedClassIDs() []ClassID {
	out := s.ClassIDs()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClassOf returns the class a student currently belongs to, or "" if the
// student is unassigned.
func (s *Snapshot) ClassOf(id StudentID) ClassID {
	return s.classOf[id]
}

// Members returns the ordered-insertion set of a class's students.
func (s *Snapshot) Members(class ClassID) []StudentID {
	c, ok := s.classes[class]
	if !ok {
		return nil
	}
	return c.Members()
}

// ClassSize returns the number of students currently in a class.
func (s *Snapshot) ClassSize(class ClassID) int {
	c, ok := s.classes[class]
	if !ok {
		return 0
	}
	return len(c.members)
}

// UnassignedStudentIDs returns students with no class ("" mapping).
func (s *Snapshot) UnassignedStudentIDs() []StudentID {
	var out []StudentID
	for _, st := range s.students {
		if s.classOf[st.ID] == "" {
			out = append(out, st.ID)
		}
	}
	return out
}

// PlaceStudent is the single raw mutation primitive: it removes the student
// from its current class (if any) and appends it to target's member list.
// It performs no constraint checking; that is the job of the constraint
// checker and the neighborhood operations built on top of it.
func (s *Snapshot) PlaceStudent(id StudentID, target ClassID) {
	if cur, ok := s.classOf[id]; ok && cur != "" {
		if c, ok := s.classes[cur]; ok {
			if idx := c.indexOf(id); idx >= 0 {
				c.members = append(c.members[:idx], c.members[idx+1:]...)
			}
		}
	}
	if target == "" {
		delete(s.classOf, id)
		return
	}
	c, ok := s.classes[target]
	if !ok {
		c = &Class{ID: target}
		s.classes[target] = c
		s.classOrder = append(s.classOrder, target)
	}
	c.members = append(c.members, id)
	s.classOf[id] = target
}

// GroupMembers returns the ids of every student sharing a non-empty force
// group tag, in roster order.
func (s *Snapshot) GroupMembers(tag string) []StudentID {
	if tag == "" {
		return nil
	}
	var out []StudentID
	for _, st := range s.students {
		if st.ForceGroup == tag {
			out = append(out, st.ID)
		}
	}
	return out
}

// ClassGenderCounts returns the number of male and female students in a class.
func (s *Snapshot) ClassGenderCounts(class ClassID) (male, female int) {
	for _, id := range s.Members(class) {
		st, ok := s.StudentByID(id)
		if !ok {
			continue
		}
		switch st.Gender {
		case GenderMale:
			male++
		case GenderFemale:
			female++
		}
	}
	return
}

// ClassMeanAcademic returns the mean academic score of a class, or (0,
// false) if the class is empty.
func (s *Snapshot) ClassMeanAcademic(class ClassID) (float64, bool) {
	members := s.Members(class)
	if len(members) == 0 {
		return 0, false
	}
	var sum float64
	for _, id := range members {
		if st, ok := s.StudentByID(id); ok {
			sum += st.AcademicScore
		}
	}
	return sum / float64(len(members)), true
}

// ClassMeanBehavior returns the mean numeric behavior rank of a class.
func (s *Snapshot) ClassMeanBehavior(class ClassID) (float64, bool) {
	members := s.Members(class)
	if len(members) == 0 {
		return 0, false
	}
	var sum float64
	for _, id := range members {
		if st, ok := s.StudentByID(id); ok {
			sum += float64(st.BehaviorRank.Numeric())
		}
	}
	return sum / float64(len(members)), true
}

// ClassMeanStudentiality returns the mean numeric studentiality rank of a class.
func (s *Snapshot) ClassMeanStudentiality(class ClassID) (float64, bool) {
	members := s.Members(class)
	if len(members) == 0 {
		return 0, false
	}
	var sum float64
	for _, id := range members {
		if st, ok := s.StudentByID(id); ok {
			sum += float64(st.StudentialityRank.Numeric())
		}
	}
	return sum / float64(len(members)), true
}

// ClassAssistanceCount returns the number of assistance_package=true
// students in a class.
func (s *Snapshot) ClassAssistanceCount(class ClassID) int {
	count := 0
	for _, id := range s.Members(class) {
		if st, ok := s.StudentByID(id); ok && st.AssistancePackage {
			count++
		}
	}
	return count
}

// ClassOriginCounts returns the multiset of school_of_origin values for a
// class, excluding the empty (unknown) origin.
func (s *Snapshot) ClassOriginCounts(class ClassID) map[string]int {
	out := make(map[string]int)
	for _, id := range s.Members(class) {
		st, ok := s.StudentByID(id)
		if !ok || st.SchoolOfOrigin == "" {
			continue
		}
		out[st.SchoolOfOrigin]++
	}
	return out
}

// OriginCounts returns the multiset of school_of_origin values across the
// whole roster, excluding the empty origin.
func (s *Snapshot) OriginCounts() map[string]int {
	out := make(map[string]int)
	for _, st := range s.students {
		if st.SchoolOfOrigin == "" {
			continue
		}
		out[st.SchoolOfOrigin]++
	}
	return out
}
