package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tamriel-catalog/internal/store"
)

// ErrUnknownProfile is returned for a profile name that is not registered.
var ErrUnknownProfile = errors.New("unknown load profile")

// EnchantPrefix is the table name prefix shared by the enchant profiles.
const EnchantPrefix = "morrowind_enchant_"

// EnchantPrefixes names the enchant data files, in load order. The first
// four are produced by convert-csv.
var EnchantPrefixes = []string{
	"armor",
	"books",
	"clothing",
	"weapons",
	"soul_gems",
	"magic_effects",
	"magic_schools",
}

// CSVPrefixes are the enchant files that ship as CSV.
var CSVPrefixes = EnchantPrefixes[:4]

// Profile binds a JSON document to its target table.
type Profile struct {
	Name  string
	Table store.TableSpec
}

var profiles = map[string]Profile{}

func init() {
	editions := []struct{ edition, short string }{
		{"skyrim", "s"},
		{"oblivion", "o"},
		{"morrowind", "m"},
	}
	for _, e := range editions {
		register(e.edition+"_ingredients", "name", e.short+"_i_name", true, "name")
		register(e.edition+"_alchemy_effects", "name", e.short+"_e_name_effect", false, "name", "effect")
		register(e.edition+"_alchemy_ingredients", "name", e.short+"_a_i_name", true, "name")
	}
	for _, prefix := range EnchantPrefixes {
		register(EnchantPrefix+prefix, "ID", "m_e_"+prefix, true, "ID")
	}
}

func register(table, key, index string, unique bool, columns ...string) {
	profiles[table] = Profile{
		Name: table,
		Table: store.TableSpec{
			Name:         table,
			Key:          key,
			IndexName:    index,
			IndexColumns: columns,
			Unique:       unique,
		},
	}
}

// Lookup returns the profile registered under name.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[strings.TrimSpace(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Names returns every profile name, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
