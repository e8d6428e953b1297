package object

import "github.com/avmcore/avm/value"

// Watcher is a VM1-only write interceptor installed via set_watcher
// (spec.md §4.C). The callback runs before the write lands and may
// rewrite the value; its return value is what is actually stored.
type Watcher struct {
	Callback value.Value // a Function-kind Value, called (name, old, new, userData)
	UserData value.Value
}

// WatcherTable maps property name to at most one active watcher.
type WatcherTable struct {
	watchers map[value.StringHandle]*Watcher
}

func NewWatcherTable() *WatcherTable {
	return &WatcherTable{watchers: make(map[value.StringHandle]*Watcher)}
}

// Set installs (or replaces) the watcher for name.
func (w *WatcherTable) Set(name value.StringHandle, cb value.Value, userData value.Value) {
	w.watchers[name] = &Watcher{Callback: cb, UserData: userData}
}

// Remove uninstalls the watcher for name, reporting whether one existed.
func (w *WatcherTable) Remove(name value.StringHandle) bool {
	if _, ok := w.watchers[name]; !ok {
		return false
	}
	delete(w.watchers, name)
	return true
}

// Get returns the watcher for name, if any.
func (w *WatcherTable) Get(name value.StringHandle) (*Watcher, bool) {
	ww, ok := w.watchers[name]
	return ww, ok
}
