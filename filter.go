package grist

// Filter restricts which rows of a table an operation sees: each entry
// maps a column id to the values accepted for that column. Conditions
// combine as AND across columns and OR within a column's value list.
type Filter map[string][]interface{}

// Matches reports whether rec satisfies every column condition. A
// record missing a filtered column never matches, since an absent value
// cannot be in a concrete allowed-value list.
func (f Filter) Matches(rec Record) bool {
	for col, allowed := range f {
		v, ok := rec[col]
		if !ok {
			return false
		}
		matched := false
		for _, want := range allowed {
			if sameCell(v, want) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
