package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds JSON members a type does not model explicitly.
// Upstream enrichment attaches many attributes (depth, authenticity,
// emotional profile, price insights) that this pipeline carries opaquely;
// they survive a decode/encode round trip unchanged.
type Extra map[string]json.RawMessage

var knownNames sync.Map // reflect.Type -> map[string]struct{}

// jsonNames returns the JSON member names a struct type declares.
func jsonNames(t reflect.Type) map[string]struct{} {
	if cached, ok := knownNames.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names[name] = struct{}{}
	}
	knownNames.Store(t, names)
	return names
}

// decodeWithExtra unmarshals data into known (a pointer to struct) and
// returns every member the struct does not declare.
func decodeWithExtra(data []byte, known any) (Extra, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for name := range jsonNames(reflect.TypeOf(known).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra marshals known and merges extra members into the object.
// Declared members win over extras with the same name.
func encodeWithExtra(known any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func cloneExtra(e Extra) Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
