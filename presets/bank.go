// Package presets embeds the factory patch bank. The bank data lives
// in rom1a.yml and is parsed once at startup; accessors hand out copies
// so callers can edit a patch without touching the bank.
package presets

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vx7synth/vx7"
)

//go:embed rom1a.yml
var rom1aYaml []byte

var bank []vx7.Patch

func init() {
	// Strict parsing so a typo in the bank file fails loudly at
	// startup instead of silently zeroing a parameter.
	if err := yaml.UnmarshalStrict(rom1aYaml, &bank); err != nil {
		panic(fmt.Errorf("presets: embedded bank is invalid: %v", err))
	}
}

// Len returns the number of factory patches.
func Len() int { return len(bank) }

// Names returns the display names of all factory patches, in bank
// order.
func Names() []string {
	names := make([]string, len(bank))
	for i, p := range bank {
		names[i] = p.Name
	}
	return names
}

// ByIndex returns a copy of the factory patch at index 0..Len()-1.
func ByIndex(index int) (vx7.Patch, error) {
	if index < 0 || index >= len(bank) {
		return vx7.Patch{}, fmt.Errorf("preset index %d out of range 0-%d", index, len(bank)-1)
	}
	return bank[index], nil
}

// ByName returns a copy of the factory patch with the given name. The
// match ignores case and the padding spaces in the display names.
func ByName(name string) (vx7.Patch, bool) {
	want := normalize(name)
	for _, p := range bank {
		if normalize(p.Name) == want {
			return p, true
		}
	}
	return vx7.Patch{}, false
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
