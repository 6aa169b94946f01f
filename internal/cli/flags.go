package cli

import (
	"github.com/spf13/pflag"
)

// bindFlags ties config keys to flags.
// A flag only overrides the config when it is set.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
