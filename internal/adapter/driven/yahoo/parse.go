package yahoo

import "github.com/tidwall/gjson"

// Yahoo's JSON format encodes records as arrays of single-key objects,
// sometimes nested one level deep, and collections as objects keyed "0".."n"
// plus a "count" member. These helpers hide both shapes.

// flatten merges the keys of every object inside r, descending into nested
// arrays. The first occurrence of a key wins.
func flatten(r gjson.Result) map[string]gjson.Result {
	out := make(map[string]gjson.Result)
	flattenInto(r, out)
	return out
}

func flattenInto(r gjson.Result, out map[string]gjson.Result) {
	switch {
	case r.IsArray():
		for _, el := range r.Array() {
			flattenInto(el, out)
		}
	case r.IsObject():
		r.ForEach(func(key, value gjson.Result) bool {
			if _, ok := out[key.String()]; !ok {
				out[key.String()] = value
			}
			return true
		})
	}
}

// each calls fn for every numbered member of a Yahoo collection.
func each(collection gjson.Result, fn func(gjson.Result)) {
	collection.ForEach(func(key, value gjson.Result) bool {
		if key.String() != "count" {
			fn(value)
		}
		return true
	})
}
