package editor

import (
	"sync"

	"golang.org/x/net/html/atom"
)

// Plugin extends the set of elements the HTML engine keeps.
type Plugin struct {
	Name     string
	Elements []atom.Atom
}

var (
	pluginsMu   sync.RWMutex
	plugins     = map[string]Plugin{}
	pluginAtoms = map[atom.Atom]string{}

	registerOnce sync.Once
)

// DefaultPlugins are installed by RegisterPlugins.
var DefaultPlugins = []Plugin{
	{Name: "image", Elements: []atom.Atom{atom.Img, atom.Figure, atom.Figcaption}},
	{Name: "table", Elements: []atom.Atom{atom.Table, atom.Thead, atom.Tbody, atom.Tfoot, atom.Tr, atom.Th, atom.Td, atom.Caption}},
}

// RegisterPlugins installs the default plugins. It is called once at process
// start; later calls do nothing.
func RegisterPlugins() {
	registerOnce.Do(func() {
		for _, p := range DefaultPlugins {
			Register(p)
		}
	})
}

// Register installs p. Registering a name twice keeps the first plugin.
func Register(p Plugin) bool {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()
	if _, ok := plugins[p.Name]; ok {
		return false
	}
	plugins[p.Name] = p
	for _, a := range p.Elements {
		pluginAtoms[a] = p.Name
	}
	return true
}

// Registered reports whether a plugin with the given name is installed.
func Registered(name string) bool {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	_, ok := plugins[name]
	return ok
}

func pluginAllows(a atom.Atom) bool {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	_, ok := pluginAtoms[a]
	return ok
}
