package manifest

// ancestry is an immutable chain of locator keys from the starting manifest
// down to the one being resolved. Siblings share their parent's chain.
type ancestry struct {
	key    string
	parent *ancestry
	depth  int
}

// push returns a new chain with key appended
func (a *ancestry) push(key string) *ancestry {
	if a == nil {
		return &ancestry{key: key}
	}
	return &ancestry{key: key, parent: a, depth: a.depth + 1}
}

func (a *ancestry) contains(key string) bool {
	for n := a; n != nil; n = n.parent {
		if n.key == key {
			return true
		}
	}
	return false
}

// chain returns the keys outermost first
func (a *ancestry) chain() []string {
	var keys []string
	for n := a; n != nil; n = n.parent {
		keys = append(keys, n.key)
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}
