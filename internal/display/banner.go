package display

import (
	"fmt"
	"io"

	"github.com/backmassage/archivist/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `                _     _       _     _
  __ _ _ __ ___| |__ (_)_   _(_)___| |_
 / _`+"`"+` | '__/ __| '_ \| \ \ / / / __| __|
| (_| | | | (__| | | | |\ V /| \__ \ |_
 \__,_|_|  \___|_| |_|_| \_/ |_|___/\__|
`)
	fmt.Fprint(w, term.NC)
	fmt.Fprintf(w, "v%s\n\n", version)
}
