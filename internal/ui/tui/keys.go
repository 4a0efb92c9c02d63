package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the dashboard bindings. Every toggle flips one section.
type KeyMap struct {
	Quit        key.Binding
	PerCore     key.Binding
	PCIe        key.Binding
	Temps       key.Binding
	Networks    key.Binding
	GPUs        key.Binding
	Disks       key.Binding
	NetFS       key.Binding
	BondMembers key.Binding
	Units       key.Binding
	Help        key.Binding
	Faster      key.Binding
	Slower      key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "Q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	PerCore: key.NewBinding(
		key.WithKeys("c", "C"),
		key.WithHelp("c", "per-core"),
	),
	PCIe: key.NewBinding(
		key.WithKeys("p", "P"),
		key.WithHelp("p", "pcie"),
	),
	Temps: key.NewBinding(
		key.WithKeys("t", "T"),
		key.WithHelp("t", "temps"),
	),
	Networks: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "networks"),
	),
	GPUs: key.NewBinding(
		key.WithKeys("g", "G"),
		key.WithHelp("g", "gpus"),
	),
	Disks: key.NewBinding(
		key.WithKeys("i", "I"),
		key.WithHelp("i", "disks"),
	),
	NetFS: key.NewBinding(
		key.WithKeys("s", "S"),
		key.WithHelp("s", "nfs"),
	),
	BondMembers: key.NewBinding(
		key.WithKeys("d", "D"),
		key.WithHelp("d", "bond members"),
	),
	Units: key.NewBinding(
		key.WithKeys("f", "F"),
		key.WithHelp("f", "°C/°F"),
	),
	Help: key.NewBinding(
		key.WithKeys("h", "H", "?"),
		key.WithHelp("h", "help"),
	),
	Faster: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "faster"),
	),
	Slower: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "slower"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help, k.Faster, k.Slower}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PerCore, k.Disks, k.Networks, k.BondMembers},
		{k.NetFS, k.PCIe, k.GPUs, k.Temps},
		{k.Units, k.Faster, k.Slower},
		{k.Help, k.Quit},
	}
}
