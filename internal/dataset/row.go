package dataset

import "time"

// Row is one parsed record keyed by column name. Columns are discovered at
// parse time; a missing key and a null value mean the same thing.
type Row map[string]Value

func (r Row) Get(key string) Value {
	return r[key]
}

// FirstFloat returns the first key, in order, holding a numeric value.
func (r Row) FirstFloat(keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := r[k].Float(); ok {
			return f, true
		}
	}
	return 0, false
}

// FirstTime returns the first key, in order, holding a parseable date.
func (r Row) FirstTime(keys ...string) (time.Time, bool) {
	for _, k := range keys {
		if t, ok := r[k].Time(); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// FirstText returns the first non-null key as text, or def.
func (r Row) FirstText(def string, keys ...string) string {
	for _, k := range keys {
		v := r[k]
		if !v.IsNull() {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return def
}
