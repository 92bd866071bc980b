package configfx

import (
	"os"

	"github.com/spf13/pflag"
)

func PFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)

	// Config file flag
	fs.StringP("config", "c", "", "Config file")

	// ExitOnError exits on a malformed command line
	_ = fs.Parse(os.Args[1:])

	return fs
}
