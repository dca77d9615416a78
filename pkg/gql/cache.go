package gql

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// rootKey is the cache entity holding top-level query fields.
const rootKey = "ROOT_QUERY"

// cursorArgs are the pagination arguments. Relay-style fields exclude
// them from the partition key so pages merge; nexus-style fields
// include them so pages stay apart.
var cursorArgs = []string{"first", "after", "last", "before"}

// refKey marks a normalized reference value.
const refKey = "__ref"

// Store is the normalized entity cache. Response objects carrying a
// __typename and a resolvable identity are stored once per identity
// key and referenced from their parents; later responses merge
// field-by-field into the existing entity.
//
// A Store is safe for concurrent use. It is discarded wholesale on
// session change via Reset.
type Store struct {
	policies *Policies

	mu       sync.RWMutex
	entities map[string]map[string]interface{}
}

// NewStore builds an empty store governed by the given policy table.
func NewStore(policies *Policies) *Store {
	if policies == nil {
		policies = ConsolePolicies()
	}
	return &Store{
		policies: policies,
		entities: make(map[string]map[string]interface{}),
	}
}

// Reset discards every cached entity.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[string]map[string]interface{})
}

// Len reports the number of normalized entities, including the root.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// WriteQuery normalizes one response's data into the store. vars are
// the request variables, used to partition paginated root fields.
func (s *Store) WriteQuery(data map[string]interface{}, vars map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.entities[rootKey]
	if root == nil {
		root = make(map[string]interface{})
		s.entities[rootKey] = root
	}
	for field, value := range data {
		policy, hasPolicy := s.fieldPolicy("Query", field)
		key := storeFieldKey(field, vars, policy, hasPolicy)
		incoming := s.normalize(value)
		root[key] = s.mergeField(root[key], incoming, policy, hasPolicy)
	}
}

// WriteEntities normalizes the entities contained in data without
// registering any root field, for mutation payloads.
func (s *Store) WriteEntities(data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, value := range data {
		s.normalize(value)
	}
}

// ReadField returns the denormalized value of a root field for the
// partition selected by vars, or false when the partition has never
// been written.
func (s *Store) ReadField(field string, vars map[string]interface{}) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.entities[rootKey]
	if !ok {
		return nil, false
	}
	policy, hasPolicy := s.fieldPolicy("Query", field)
	value, ok := root[storeFieldKey(field, vars, policy, hasPolicy)]
	if !ok {
		return nil, false
	}
	return s.denormalize(value, map[string]bool{}), true
}

// Entity returns a denormalized copy of the entity stored under key,
// or false when absent.
func (s *Store) Entity(key string) (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entities[key]; !ok {
		return nil, false
	}
	out, _ := s.denormalize(map[string]interface{}{refKey: key}, map[string]bool{}).(map[string]interface{})
	return out, true
}

func (s *Store) fieldPolicy(typename, field string) (FieldPolicy, bool) {
	fields, ok := s.policies.Fields[typename]
	if !ok {
		return FieldPolicy{}, false
	}
	policy, ok := fields[field]
	return policy, ok
}

// storeFieldKey builds the cache key for one field occurrence. Fields
// without a pagination policy key by all their arguments; relay fields
// by their key arguments only; nexus fields by key arguments plus the
// cursor arguments.
func storeFieldKey(field string, vars map[string]interface{}, policy FieldPolicy, hasPolicy bool) string {
	var args map[string]interface{}
	switch {
	case !hasPolicy:
		args = vars
	case policy.Style == NexusPagination:
		args = filterArgs(vars, append(append([]string{}, policy.KeyArgs...), cursorArgs...))
	default:
		args = filterArgs(vars, policy.KeyArgs)
	}
	if len(args) == 0 {
		return field
	}
	return field + "(" + canonicalJSON(args) + ")"
}

func filterArgs(vars map[string]interface{}, names []string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, name := range names {
		if v, ok := vars[name]; ok {
			out[name] = v
		}
	}
	return out
}

// canonicalJSON renders args deterministically. encoding/json sorts map
// keys, which is exactly the stability the partition key needs.
func canonicalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// normalize walks a response value, extracting identifiable entities
// into the store and replacing them with references. Callers hold mu.
func (s *Store) normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return s.normalizeObject(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.normalize(item)
		}
		return out
	default:
		return value
	}
}

func (s *Store) normalizeObject(obj map[string]interface{}) interface{} {
	typename, _ := obj["__typename"].(string)

	key, identifiable := s.identityKey(typename, obj)
	fields := make(map[string]interface{}, len(obj))
	for name, value := range obj {
		fields[name] = s.normalize(value)
	}
	if !identifiable {
		return fields
	}

	existing := s.entities[key]
	if existing == nil {
		existing = make(map[string]interface{}, len(fields))
		s.entities[key] = existing
	}
	for name, value := range fields {
		policy, hasPolicy := s.fieldPolicy(typename, name)
		existing[name] = s.mergeField(existing[name], value, policy, hasPolicy)
	}
	return map[string]interface{}{refKey: key}
}

// identityKey computes the cache identity of one object, or reports it
// unidentifiable, in which case it stays embedded in its parent.
func (s *Store) identityKey(typename string, obj map[string]interface{}) (string, bool) {
	if typename == "" {
		return "", false
	}
	policy := s.policies.Types[typename]
	if policy.NoKey {
		return "", false
	}
	keyFields := policy.KeyFields
	if keyFields == nil {
		if _, ok := obj["mrn"]; !ok {
			return "", false
		}
		keyFields = []string{"mrn"}
	}

	parts := make([]string, 0, len(keyFields))
	for _, field := range keyFields {
		value, ok := obj[field]
		if !ok || value == nil {
			return "", false
		}
		parts = append(parts, keyFieldValue(value))
	}
	return typename + ":" + strings.Join(parts, ":"), true
}

// keyFieldValue renders one key-field value. Object-valued key fields
// (the asset half of a composite finding key) reduce to their own mrn
// when present.
func keyFieldValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		if mrn, ok := v["mrn"].(string); ok {
			return mrn
		}
		return canonicalJSON(v)
	default:
		return canonicalJSON(v)
	}
}

// mergeField merges an incoming field value over an existing one.
// Relay-paginated connections accumulate edges; everything else, nexus
// partitions included, is replaced.
func (s *Store) mergeField(existing, incoming interface{}, policy FieldPolicy, hasPolicy bool) interface{} {
	if !hasPolicy || policy.Style != RelayPagination {
		return incoming
	}
	prev, ok := asConnection(existing)
	if !ok {
		return incoming
	}
	next, ok := asConnection(incoming)
	if !ok {
		return incoming
	}

	merged := make(map[string]interface{}, len(next))
	for name, value := range prev {
		merged[name] = value
	}
	for name, value := range next {
		merged[name] = value
	}
	prevEdges, _ := prev["edges"].([]interface{})
	nextEdges, _ := next["edges"].([]interface{})
	merged["edges"] = append(append([]interface{}{}, prevEdges...), nextEdges...)
	return merged
}

func asConnection(value interface{}) (map[string]interface{}, bool) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	if _, ok := obj["edges"]; !ok {
		return nil, false
	}
	return obj, true
}

// denormalize resolves references back into plain values. The visited
// set breaks reference cycles; a revisited entity resolves to nil.
func (s *Store) denormalize(value interface{}, visited map[string]bool) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		if ref, ok := v[refKey].(string); ok && len(v) == 1 {
			if visited[ref] {
				return nil
			}
			entity, ok := s.entities[ref]
			if !ok {
				return nil
			}
			visited[ref] = true
			out := make(map[string]interface{}, len(entity))
			for name, fv := range entity {
				out[name] = s.denormalize(fv, visited)
			}
			delete(visited, ref)
			return out
		}
		out := make(map[string]interface{}, len(v))
		for name, fv := range v {
			out[name] = s.denormalize(fv, visited)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.denormalize(item, visited)
		}
		return out
	default:
		return value
	}
}
