package table

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/noah-isme/classplacer/internal/core/model"
)

// unionFind links force_friend relationships into force-group tags: every
// student mentioned by any force_friend list, plus the student who lists
// them, ends up in one connected component and shares one synthesized tag.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// ToSnapshot converts a RawTable into a Snapshot. When skipValidation is
// false, any invalid cell or dangling reference is returned as an error and
// no snapshot is produced. When true, invalid cells are normalized to the
// safe defaults from spec.md §6.1 and dangling ids are filtered out of
// friend/dislike/force-group lists instead of failing the run.
func ToSnapshot(t *RawTable, skipValidation bool) (*model.Snapshot, []error, error) {
	for _, col := range requiredColumns {
		if !hasColumn(t.Headers, col) {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	columns := append([]string(nil), t.Headers...)
	if !hasColumn(columns, ColClass) {
		columns = append(columns, ColClass)
	}
	known := knownColumns()

	var errs []error
	students := make([]model.Student, 0, len(t.Rows))
	seenIDs := make(map[string]bool, len(t.Rows))
	uf := newUnionFind()
	rawFriendGroups := make(map[string][]string) // student id -> raw force_friend peer ids

	for i, row := range t.Rows {
		rowNum := i + 2 // header is row 1

		id := row[ColStudentID]
		if id == "" || !isNumericID(id) {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColStudentID, Reason: "must be a numeric id"})
			} else {
				id = syntheticID(row, i)
			}
		}
		if seenIDs[id] {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColStudentID, Reason: "duplicate id"})
			} else {
				id = syntheticID(row, i)
			}
		}
		seenIDs[id] = true

		first := row[ColFirstName]
		if first == "" {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColFirstName, Reason: "must not be empty"})
			} else {
				first = "Unknown"
			}
		}
		last := row[ColLastName]
		if last == "" {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColLastName, Reason: "must not be empty"})
			} else {
				last = "Student"
			}
		}

		gender, ok := parseGender(row[ColGender])
		if !ok {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColGender, Reason: "must be M or F"})
			}
			gender = model.GenderMale
		}

		score, ok := parseScore(row[ColAcademicScore])
		if !ok {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColAcademicScore, Reason: "must be a number in [0,100]"})
			}
			score = 50.0
		}

		behavior, ok := parseRank(row[ColBehaviorRank])
		if !ok {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColBehaviorRank, Reason: "must be A, B, C, or D"})
			}
			behavior = model.RankA
		}

		studentiality, ok := parseRank(row[ColStudentialityRank])
		if !ok {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColStudentialityRank, Reason: "must be A, B, C, or D"})
			}
			studentiality = model.RankA
		}

		assistance, ok := parseBool(row[ColAssistancePackage])
		if !ok {
			if !skipValidation {
				errs = append(errs, ValidationError{Row: rowNum, Column: ColAssistancePackage, Reason: "must be a boolean"})
			}
			assistance = false
		}

		extra := make(map[string]string)
		for _, col := range t.Headers {
			if !known[col] {
				extra[col] = row[col]
			}
		}

		st := model.Student{
			ID:                model.StudentID(id),
			FirstName:         first,
			LastName:          last,
			Gender:            gender,
			AcademicScore:     score,
			BehaviorRank:      behavior,
			StudentialityRank: studentiality,
			AssistancePackage: assistance,
			SchoolOfOrigin:    row[ColSchool],
			ForceClass:        model.ClassID(row[ColForceClass]),
			Extra:             extra,
		}
		for _, col := range friendCols {
			if v := row[col]; v != "" {
				st.PreferredFriends = append(st.PreferredFriends, model.StudentID(v))
			}
		}
		for _, col := range dislikeCols {
			if v := row[col]; v != "" {
				st.DislikedPeers = append(st.DislikedPeers, model.StudentID(v))
			}
		}

		if peers := splitList(row[ColForceFriend]); len(peers) > 0 {
			rawFriendGroups[id] = peers
			for _, p := range peers {
				uf.union(id, p)
			}
		}

		students = append(students, st)
	}

	// Resolve force-group tags from the union-find components. Only
	// students actually present in the roster can anchor a component;
	// components collapse to a single roster member get no tag at all.
	rosterIDs := make(map[string]bool, len(students))
	for _, st := range students {
		rosterIDs[string(st.ID)] = true
	}
	componentMembers := make(map[string][]string)
	for id := range rawFriendGroups {
		root := uf.find(id)
		componentMembers[root] = append(componentMembers[root], id)
	}
	for id := range uf.parent {
		if !rosterIDs[id] {
			continue
		}
		root := uf.find(id)
		if _, seeded := rawFriendGroups[id]; seeded {
			continue
		}
		componentMembers[root] = append(componentMembers[root], id)
	}

	tags := make(map[string]string) // root -> tag
	roots := make([]string, 0, len(componentMembers))
	for root := range componentMembers {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	for i, root := range roots {
		members := uniqueRosterMembers(componentMembers[root], rosterIDs, skipValidation, &errs)
		if len(members) < 2 {
			continue
		}
		tags[root] = fmt.Sprintf("group_%d", i+1)
	}

	for i := range students {
		root := uf.find(string(students[i].ID))
		if tag, ok := tags[root]; ok {
			students[i].ForceGroup = tag
		}
	}

	// Reference checks: every non-empty friend/dislike id must exist in
	// the roster; skip-validation filters the dangling id instead of
	// failing the run.
	for i := range students {
		students[i].PreferredFriends = filterKnown(students[i].PreferredFriends, rosterIDs, "preferred_friends", skipValidation, &errs)
		students[i].DislikedPeers = filterKnown(students[i].DislikedPeers, rosterIDs, "disliked_peers", skipValidation, &errs)
	}

	if !skipValidation && len(errs) > 0 {
		return nil, errs, nil
	}

	classSet := make(map[model.ClassID]bool)
	classOrder := make([]model.ClassID, 0)
	for _, row := range t.Rows {
		if c := model.ClassID(row[ColClass]); c != "" && !classSet[c] {
			classSet[c] = true
			classOrder = append(classOrder, c)
		}
	}
	sort.Slice(classOrder, func(i, j int) bool { return classOrder[i] < classOrder[j] })

	snap := model.NewSnapshot(students, classOrder, columns)
	for i, row := range t.Rows {
		if c := row[ColClass]; c != "" {
			snap.PlaceStudent(students[i].ID, model.ClassID(c))
		}
	}
	return snap, errs, nil
}

func uniqueRosterMembers(ids []string, roster map[string]bool, skip bool, errs *[]error) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		if !roster[id] {
			if !skip {
				*errs = append(*errs, ReferenceError{Kind: "force_friend", ID: id})
			}
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func filterKnown(ids []model.StudentID, roster map[string]bool, kind string, skip bool, errs *[]error) []model.StudentID {
	var out []model.StudentID
	for _, id := range ids {
		if !roster[string(id)] {
			if !skip {
				*errs = append(*errs, ReferenceError{Kind: kind, ID: string(id)})
				continue
			}
			continue
		}
		out = append(out, id)
	}
	return out
}

func isNumericID(id string) bool {
	if len(id) == 0 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// syntheticID derives a stable 9-digit id from a row's content, used when
// --skip-validation normalizes a missing or malformed student_id.
func syntheticID(row map[string]string, index int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(row[ColFirstName]))
	_, _ = h.Write([]byte(row[ColLastName]))
	_, _ = h.Write([]byte(strconv.Itoa(index)))
	n := h.Sum64() % 900000000
	return strconv.FormatUint(n+100000000, 10)
}

// FromSnapshot renders a Snapshot back into a RawTable whose columns match
// the snapshot's original input order, with class populated and unknown
// columns re-emitted verbatim per student.
func FromSnapshot(snap *model.Snapshot) *RawTable {
	columns := snap.Columns
	if !hasColumn(columns, ColClass) {
		columns = append(append([]string(nil), columns...), ColClass)
	}

	t := &RawTable{Headers: columns}
	for _, st := range snap.Students() {
		row := make(map[string]string, len(columns))
		row[ColStudentID] = string(st.ID)
		row[ColFirstName] = st.FirstName
		row[ColLastName] = st.LastName
		row[ColGender] = string(st.Gender)
		row[ColAcademicScore] = strconv.FormatFloat(st.AcademicScore, 'f', -1, 64)
		row[ColBehaviorRank] = string(st.BehaviorRank)
		row[ColStudentialityRank] = string(st.StudentialityRank)
		row[ColAssistancePackage] = strconv.FormatBool(st.AssistancePackage)
		row[ColSchool] = st.SchoolOfOrigin
		row[ColForceClass] = string(st.ForceClass)
		row[ColClass] = string(snap.ClassOf(st.ID))
		for i, col := range friendCols {
			if i < len(st.PreferredFriends) {
				row[col] = string(st.PreferredFriends[i])
			}
		}
		for i, col := range dislikeCols {
			if i < len(st.DislikedPeers) {
				row[col] = string(st.DislikedPeers[i])
			}
		}
		for k, v := range st.Extra {
			row[k] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
